package odoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	intResponse   = `<?xml version="1.0"?><methodResponse><params><param><value><int>%d</int></value></param></params></methodResponse>`
	falseResponse = `<?xml version="1.0"?><methodResponse><params><param><value><boolean>0</boolean></value></param></params></methodResponse>`
	faultResponse = `<?xml version="1.0"?><methodResponse><fault><value><struct>` +
		`<member><name>faultCode</name><value><int>1</int></value></member>` +
		`<member><name>faultString</name><value><string>%s</string></value></member>` +
		`</struct></value></fault></methodResponse>`
	versionResponse = `<?xml version="1.0"?><methodResponse><params><param><value><struct>` +
		`<member><name>server_version</name><value><string>17.0</string></value></member>` +
		`<member><name>protocol_version</name><value><int>1</int></value></member>` +
		`</struct></value></param></params></methodResponse>`
)

// fakeOdoo answers XML-RPC calls by method name and records every request body.
type fakeOdoo struct {
	mu       sync.Mutex
	calls    map[string]int
	bodies   []string
	authOK   bool
	createFn func(n int) string
}

func newFakeOdoo(t *testing.T) (*fakeOdoo, *httptest.Server) {
	f := &fakeOdoo{calls: map[string]int{}, authOK: true}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.bodies = append(f.bodies, body)
		w.Header().Set("Content-Type", "text/xml")
		switch {
		case r.URL.Path == "/xmlrpc/2/common" && strings.Contains(body, "<methodName>version</methodName>"):
			f.calls["version"]++
			io.WriteString(w, versionResponse)
		case r.URL.Path == "/xmlrpc/2/common" && strings.Contains(body, "<methodName>authenticate</methodName>"):
			f.calls["authenticate"]++
			if !f.authOK {
				io.WriteString(w, falseResponse)
				return
			}
			fmt.Fprintf(w, intResponse, 7)
		case r.URL.Path == "/xmlrpc/2/object":
			f.calls["execute_kw"]++
			if f.createFn != nil {
				io.WriteString(w, f.createFn(f.calls["execute_kw"]))
				return
			}
			fmt.Fprintf(w, intResponse, 42)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOdoo) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func newTestClient(t *testing.T, url string) *Client {
	c, err := NewClient(Config{URL: url + "/", Database: "lde", Username: "bot@example.com", APIKey: "secret", Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestVersion(t *testing.T) {
	_, srv := newFakeOdoo(t)
	c := newTestClient(t, srv.URL)

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "17.0", v["server_version"])
}

func TestAuthenticate_CachesUID(t *testing.T) {
	f, srv := newFakeOdoo(t)
	c := newTestClient(t, srv.URL)

	uid, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)

	_, err = c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("authenticate"))
}

func TestAuthenticate_FalseIsAuthFailure(t *testing.T) {
	f, srv := newFakeOdoo(t)
	f.authOK = false
	c := newTestClient(t, srv.URL)

	_, err := c.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestCreateLead(t *testing.T) {
	f, srv := newFakeOdoo(t)
	c := newTestClient(t, srv.URL)

	id, err := c.CreateLead(context.Background(), LeadInput{
		ContactName: "Alice Martin",
		Email:       "alice@example.com",
		Company:     "ACME",
		EventType:   "Mariage",
		Guests:      120,
		VenueName:   "Château de Vaux",
		Message:     "Bonjour",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	f.mu.Lock()
	last := f.bodies[len(f.bodies)-1]
	f.mu.Unlock()
	assert.Contains(t, last, "<string>crm.lead</string>")
	assert.Contains(t, last, "<string>create</string>")
	assert.Contains(t, last, "Mariage - Alice Martin")
	assert.Contains(t, last, "<name>partner_name</name>")
}

func TestCreateLead_FaultResetsUID(t *testing.T) {
	f, srv := newFakeOdoo(t)
	f.createFn = func(n int) string {
		if n == 1 {
			return fmt.Sprintf(faultResponse, "Access Denied")
		}
		return fmt.Sprintf(intResponse, 43)
	}
	c := newTestClient(t, srv.URL)

	_, err := c.CreateLead(context.Background(), LeadInput{ContactName: "Bob", Email: "bob@example.com"})
	var fe *FaultError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "Access Denied")

	id, err := c.CreateLead(context.Background(), LeadInput{ContactName: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(43), id)
	assert.Equal(t, 2, f.count("authenticate"))
}

func TestCreateLead_ContextCancelled(t *testing.T) {
	_, srv := newFakeOdoo(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CreateLead(ctx, LeadInput{ContactName: "Bob"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLeadFields(t *testing.T) {
	f := LeadFields(LeadInput{ContactName: "Alice", Email: "a@example.com", EventDate: "2027-06-12", Guests: 80, Message: "Hello"})
	assert.Equal(t, "Alice", f["name"])
	assert.Equal(t, "lead", f["type"])
	assert.NotContains(t, f, "phone")
	assert.Equal(t, "Hello\n\nDate souhaitée : 2027-06-12\nInvités : 80", f["description"])
}
