// Package runs persists what the maintenance commands did and when.
package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lieuxdexception/site/internal/idgen"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run is the Mongo representation of one sitectl invocation.
type Run struct {
	RunID      string     `bson:"runId" json:"runId"`
	Script     string     `bson:"script" json:"script"`
	Status     string     `bson:"status" json:"status"`
	Args       []string   `bson:"args,omitempty" json:"args,omitempty"`
	Processed  int        `bson:"processed" json:"processed"`
	Failed     int        `bson:"failed" json:"failed"`
	Error      string     `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt  time.Time  `bson:"startedAt" json:"startedAt"`
	FinishedAt *time.Time `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

// New starts a run record for script.
func New(script string, args []string) *Run {
	return &Run{
		RunID:     idgen.MustNew(idgen.PrefixRun),
		Script:    script,
		Status:    StatusRunning,
		Args:      args,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the outcome. A non-nil err or any failed item marks the run failed.
func (r *Run) Finish(processed, failed int, err error) {
	now := time.Now().UTC()
	r.Processed = processed
	r.Failed = failed
	r.FinishedAt = &now
	r.Status = StatusDone
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	} else if failed > 0 {
		r.Status = StatusFailed
	}
}

// Store saves runs in the maintenance_runs collection. A Store without a
// collection accepts every call and keeps nothing.
type Store struct {
	col *mongo.Collection
}

func NewStore(col *mongo.Collection) *Store {
	return &Store{col: col}
}

// Save upserts r by RunID.
func (s *Store) Save(ctx context.Context, r *Run) error {
	if s == nil || s.col == nil {
		return nil
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, bson.M{"runId": r.RunID}, bson.M{"$set": r}, opts); err != nil {
		return fmt.Errorf("save run %s: %w", r.RunID, err)
	}
	return nil
}

// Load returns (nil, nil) when the run is unknown or the store is a no-op.
func (s *Store) Load(ctx context.Context, runID string) (*Run, error) {
	if s == nil || s.col == nil {
		return nil, nil
	}
	var r Run
	if err := s.col.FindOne(ctx, bson.M{"runId": runID}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Recent lists the latest runs of script (all scripts when empty).
func (s *Store) Recent(ctx context.Context, script string, limit int64) ([]Run, error) {
	if s == nil || s.col == nil {
		return []Run{}, nil
	}
	filter := bson.M{}
	if script != "" {
		filter["script"] = script
	}
	if limit <= 0 {
		limit = 20
	}
	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Run{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
