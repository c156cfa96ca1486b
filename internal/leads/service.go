// Package leads stores contact-form submissions and pushes them to the CRM.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lieuxdexception/site/internal/events"
	"github.com/lieuxdexception/site/internal/idgen"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/internal/odoo"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
)

// Sync modes.
const (
	SyncInline = "inline"
	SyncAsync  = "async"
	SyncManual = "manual"
)

const DefaultMaxAttempts = 5

// DefaultSyncLease is how long a "syncing" claim holds before another
// process may take the lead over.
const DefaultSyncLease = 5 * time.Minute

var (
	ErrInvalidLead    = errors.New("invalid lead")
	ErrInvalidStatus  = errors.New("invalid lead status")
	ErrCRMDisabled    = errors.New("crm sync is not configured")
	ErrSyncInProgress = errors.New("lead sync already in progress")
)

// CRM creates a lead record in the external CRM and returns its id.
type CRM interface {
	CreateLead(ctx context.Context, in odoo.LeadInput) (int64, error)
}

// Options configures a Service. A nil CRM disables syncing: new leads are
// stored with sync status "skipped".
type Options struct {
	CRM         CRM
	Publisher   events.Publisher
	SyncMode    string
	MaxAttempts int
	SyncLease   time.Duration
}

// SyncReport summarises a SyncPending batch.
type SyncReport struct {
	Processed int `json:"processed"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

type Service struct {
	repo        Repository
	crm         CRM
	pub         events.Publisher
	mode        string
	maxAttempts int
	lease       time.Duration
	validate    *validator.Validate
	now         func() time.Time
	log         *logger.Component
}

func NewService(repo Repository, opts Options) *Service {
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.SyncLease <= 0 {
		opts.SyncLease = DefaultSyncLease
	}
	switch opts.SyncMode {
	case SyncInline, SyncAsync, SyncManual:
	default:
		opts.SyncMode = SyncInline
	}
	return &Service{
		repo:        repo,
		crm:         opts.CRM,
		pub:         opts.Publisher,
		mode:        opts.SyncMode,
		maxAttempts: opts.MaxAttempts,
		lease:       opts.SyncLease,
		validate:    validator.New(),
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.For("leads"),
	}
}

// SyncMode returns the effective sync mode.
func (s *Service) SyncMode() string { return s.mode }

// Submit validates and stores a new lead, announces it and, in inline mode,
// pushes it to the CRM. CRM failures are recorded on the lead, never returned.
func (s *Service) Submit(ctx context.Context, l *models.Lead) (*models.Lead, error) {
	if err := s.normalize(l); err != nil {
		return nil, err
	}
	id, err := idgen.New(idgen.PrefixLead)
	if err != nil {
		return nil, err
	}
	now := s.now()
	l.ID = id
	l.Status = models.LeadNew
	l.Sync = models.LeadSync{Status: models.SyncPending}
	if s.crm == nil {
		l.Sync.Status = models.SyncSkipped
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("store lead: %w", err)
	}
	metrics.LeadsSubmitted.WithLabelValues(l.EventType).Inc()
	s.log.Infof("submitted %s (%s)", l.ID, l.EventType)

	if err := s.pub.Publish(ctx, events.TopicLeadCreated, events.LeadCreated{LeadID: l.ID}); err != nil {
		s.log.Warnf("publish %s: %v", l.ID, err)
	}
	if s.crm != nil && s.mode == SyncInline {
		synced, err := s.Sync(ctx, l.ID)
		if err != nil {
			s.log.Warnf("inline sync %s: %v", l.ID, err)
		}
		if synced != nil {
			l = synced
		}
	}
	return l, nil
}

func (s *Service) normalize(l *models.Lead) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.Phone = strings.TrimSpace(l.Phone)
	l.Company = strings.TrimSpace(l.Company)
	l.Message = strings.TrimSpace(l.Message)
	l.EventDate = strings.TrimSpace(l.EventDate)
	if l.EventType == "" {
		l.EventType = models.EventOther
	}
	if l.Source == "" {
		l.Source = "contact-form"
	}

	var problems []string
	if l.Name == "" {
		problems = append(problems, "name is required")
	}
	if err := s.validate.Var(l.Email, "required,email"); err != nil {
		problems = append(problems, "a valid email is required")
	}
	switch l.EventType {
	case models.EventWedding, models.EventB2B, models.EventPrivate, models.EventOther:
	default:
		problems = append(problems, "unknown event type")
	}
	if l.Guests < 0 {
		problems = append(problems, "guests must be positive")
	}
	if !l.Consent {
		problems = append(problems, "consent is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidationError lists every problem found on a submission.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid lead: " + strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidLead }

// Sync pushes one lead to the CRM. The lead is claimed in the repository
// first, so concurrent callers in any process create at most one CRM record.
// A lead already synced is returned as is; one held by another caller
// returns ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context, id string) (*models.Lead, error) {
	if s.crm == nil {
		return nil, ErrCRMDisabled
	}
	now := s.now()
	l, err := s.repo.Claim(ctx, id, now, now.Add(-s.lease))
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	if l == nil {
		cur, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, ErrNotFound
		}
		if cur.Sync.Status == models.SyncSynced {
			return cur, nil
		}
		return cur, ErrSyncInProgress
	}

	odooID, crmErr := s.crm.CreateLead(ctx, toInput(l))
	done := s.now()
	st := l.Sync
	st.Attempts++
	st.ClaimedAt = nil
	if crmErr != nil {
		st.Status = models.SyncFailed
		st.LastError = crmErr.Error()
		metrics.LeadSync.WithLabelValues("failed").Inc()
	} else {
		st.Status = models.SyncSynced
		st.OdooID = odooID
		st.LastError = ""
		st.SyncedAt = &done
		metrics.LeadSync.WithLabelValues("synced").Inc()
	}
	// the CRM record exists now; release the claim even if ctx ended
	if err := s.repo.SaveSync(context.WithoutCancel(ctx), id, st, done); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}
	l.Sync = st
	l.UpdatedAt = done
	if crmErr != nil {
		return l, fmt.Errorf("sync %s: %w", id, crmErr)
	}
	s.log.Infof("synced %s as odoo #%d", id, odooID)
	return l, nil
}

// SyncPending retries up to limit pending or failed leads, oldest first.
func (s *Service) SyncPending(ctx context.Context, limit int) (SyncReport, error) {
	var rep SyncReport
	if s.crm == nil {
		return rep, ErrCRMDisabled
	}
	now := s.now()
	list, err := s.repo.Syncable(ctx, s.maxAttempts, limit, now.Add(-s.lease))
	if err != nil {
		return rep, err
	}
	for _, l := range list {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		synced, err := s.Sync(ctx, l.ID)
		if errors.Is(err, ErrSyncInProgress) {
			continue
		}
		rep.Processed++
		if err != nil || synced == nil || synced.Sync.Status != models.SyncSynced {
			rep.Failed++
			continue
		}
		rep.Synced++
	}
	return rep, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*models.Lead, error) {
	return s.repo.List(ctx, f)
}

// Get returns (nil, nil) when the lead does not exist.
func (s *Service) Get(ctx context.Context, id string) (*models.Lead, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves a lead through the back-office pipeline.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.Lead, error) {
	switch status {
	case models.LeadNew, models.LeadContacted, models.LeadWon, models.LeadLost:
	default:
		return nil, ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, status, s.now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// EventLabel is the French label used on the site and in CRM record names.
func EventLabel(eventType string) string {
	switch eventType {
	case models.EventWedding:
		return "Mariage"
	case models.EventB2B:
		return "Événement d'entreprise"
	case models.EventPrivate:
		return "Événement privé"
	default:
		return "Autre demande"
	}
}

func toInput(l *models.Lead) odoo.LeadInput {
	return odoo.LeadInput{
		ContactName: l.Name,
		Email:       l.Email,
		Phone:       l.Phone,
		Company:     l.Company,
		EventType:   EventLabel(l.EventType),
		EventDate:   l.EventDate,
		Guests:      l.Guests,
		VenueName:   l.VenueName,
		Message:     l.Message,
	}
}
