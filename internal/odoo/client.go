// Package odoo pushes leads into an Odoo CRM through its external XML-RPC API.
package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
)

var ErrAuthFailed = errors.New("odoo: authentication failed")

// FaultError is an XML-RPC fault returned by the Odoo server.
type FaultError struct {
	Method  string
	Message string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("odoo: %s fault: %s", e.Method, e.Message)
}

// Config holds the connection settings. APIKey is used as the password.
type Config struct {
	URL      string
	Database string
	Username string
	APIKey   string
	Timeout  time.Duration
}

// LeadInput is the subset of a contact-form lead sent to crm.lead.
type LeadInput struct {
	ContactName string
	Email       string
	Phone       string
	Company     string
	EventType   string // human label, used in the record name
	EventDate   string
	Guests      int
	VenueName   string
	Message     string
}

// Client talks to /xmlrpc/2/common and /xmlrpc/2/object. The uid returned by
// authenticate is cached until a create call faults.
type Client struct {
	cfg    Config
	common *xmlrpc.Client
	object *xmlrpc.Client

	mu  sync.Mutex
	uid int64
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("odoo: URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	base := strings.TrimRight(cfg.URL, "/")
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = cfg.Timeout

	common, err := xmlrpc.NewClient(base+"/xmlrpc/2/common", tr)
	if err != nil {
		return nil, fmt.Errorf("odoo: common endpoint: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/2/object", tr)
	if err != nil {
		return nil, fmt.Errorf("odoo: object endpoint: %w", err)
	}
	return &Client{cfg: cfg, common: common, object: object}, nil
}

// Version returns the server's version() map (server_version, protocol_version...).
func (c *Client) Version(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, c.common, "version", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Authenticate logs in and caches the uid.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid != 0 {
		return uid, nil
	}

	var reply any
	args := []any{c.cfg.Database, c.cfg.Username, c.cfg.APIKey, map[string]any{}}
	if err := c.call(ctx, c.common, "authenticate", args, &reply); err != nil {
		return 0, err
	}
	uid, err := toID(reply)
	if err != nil || uid == 0 {
		return 0, ErrAuthFailed
	}

	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()
	return uid, nil
}

// CreateLead creates a crm.lead record and returns its id.
func (c *Client) CreateLead(ctx context.Context, in LeadInput) (int64, error) {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return 0, err
	}
	args := []any{
		c.cfg.Database, uid, c.cfg.APIKey,
		"crm.lead", "create",
		[]any{LeadFields(in)},
	}
	var reply any
	if err := c.call(ctx, c.object, "execute_kw", args, &reply); err != nil {
		var fe *FaultError
		if errors.As(err, &fe) {
			c.mu.Lock()
			c.uid = 0
			c.mu.Unlock()
		}
		return 0, err
	}
	id, err := toID(reply)
	if err != nil {
		return 0, fmt.Errorf("odoo: create returned %v: %w", reply, err)
	}
	return id, nil
}

// LeadFields maps a lead onto crm.lead field names.
func LeadFields(in LeadInput) map[string]any {
	name := in.ContactName
	if in.EventType != "" {
		name = in.EventType + " - " + in.ContactName
	}
	fields := map[string]any{
		"name":         name,
		"contact_name": in.ContactName,
		"email_from":   in.Email,
		"description":  description(in),
		"type":         "lead",
	}
	if in.Phone != "" {
		fields["phone"] = in.Phone
	}
	if in.Company != "" {
		fields["partner_name"] = in.Company
	}
	return fields
}

func description(in LeadInput) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(in.Message))
	var extra []string
	if in.EventDate != "" {
		extra = append(extra, "Date souhaitée : "+in.EventDate)
	}
	if in.Guests > 0 {
		extra = append(extra, "Invités : "+strconv.Itoa(in.Guests))
	}
	if in.VenueName != "" {
		extra = append(extra, "Lieu : "+in.VenueName)
	}
	if len(extra) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(extra, "\n"))
	}
	return b.String()
}

// call runs an XML-RPC request, abandoning it when ctx ends. The xmlrpc
// codec performs the HTTP round trip inside Call, so it runs on its own goroutine.
func (c *Client) call(ctx context.Context, cl *xmlrpc.Client, method string, args any, reply any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("odoo: %s: %w", method, err)
	}
	errc := make(chan error, 1)
	go func() { errc <- cl.Call(method, args, reply) }()

	var err error
	select {
	case <-ctx.Done():
		return fmt.Errorf("odoo: %s: %w", method, ctx.Err())
	case err = <-errc:
	}
	if err == nil {
		return nil
	}
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		return &FaultError{Method: method, Message: fault.String}
	}
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) && !strings.HasPrefix(string(serverErr), "request error") {
		return &FaultError{Method: method, Message: string(serverErr)}
	}
	return fmt.Errorf("odoo: %s: %w", method, err)
}

func toID(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case bool:
		return 0, ErrAuthFailed
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

func (c *Client) Close() error {
	c.common.Close()
	return c.object.Close()
}
