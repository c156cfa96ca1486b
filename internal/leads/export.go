package leads

import (
	"context"
	"encoding/json"
	"io"

	"github.com/lieuxdexception/site/internal/models"
)

// exportRecord includes the request metadata hidden from the admin API.
type exportRecord struct {
	*models.Lead
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// ExportJSONL writes every lead as one JSON object per line and returns the
// number written.
func (s *Service) ExportJSONL(ctx context.Context, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	err := s.repo.Each(ctx, func(l *models.Lead) error {
		if err := enc.Encode(exportRecord{Lead: l, IP: l.IP, UserAgent: l.UserAgent}); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}
