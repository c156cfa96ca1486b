// Package audit records who changed what in the back office.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lieuxdexception/site/internal/models"
	"github.com/lieuxdexception/site/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Entry is what callers record; ID and Timestamp are filled in.
type Entry struct {
	Entity      string
	EntityID    string
	Action      string
	PerformedBy string
	Data        any
}

type Filter struct {
	Entity string
	Limit  int
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]*models.AuditLog, error)
}

func newLog(e Entry) *models.AuditLog {
	by := e.PerformedBy
	if by == "" {
		by = "system"
	}
	return &models.AuditLog{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		Action:      e.Action,
		PerformedBy: by,
		Data:        e.Data,
	}
}

func clamp(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Safe records e and logs failures instead of returning them.
func Safe(ctx context.Context, r Recorder, e Entry) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, e); err != nil {
		logger.For("audit").Warnf("record %s %s/%s: %v", e.Action, e.Entity, e.EntityID, err)
	}
}

type MemoryRecorder struct {
	mu   sync.RWMutex
	logs []*models.AuditLog
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, newLog(e))
	return nil
}

func (m *MemoryRecorder) List(ctx context.Context, f Filter) ([]*models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.AuditLog{}
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if f.Entity != "" && l.Entity != f.Entity {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit := clamp(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MongoRecorder appends to the "audit_logs" collection.
type MongoRecorder struct {
	col *mongo.Collection
}

func NewMongoRecorder(col *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{col: col}
}

func (m *MongoRecorder) Record(ctx context.Context, e Entry) error {
	_, err := m.col.InsertOne(ctx, newLog(e))
	return err
}

func (m *MongoRecorder) List(ctx context.Context, f Filter) ([]*models.AuditLog, error) {
	filter := bson.M{}
	if f.Entity != "" {
		filter["entity"] = f.Entity
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(clamp(f.Limit)))
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []*models.AuditLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
