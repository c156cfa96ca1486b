package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_PrefixAndLength(t *testing.T) {
	id, err := New(PrefixLead)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "lead_"))
	require.Len(t, id, len("lead_")+Length)
}

func TestNew_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := MustNew(PrefixVenue)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
