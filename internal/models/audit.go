package models

import "time"

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRole   = "role"
	ActionSync   = "sync"
)

// AuditLog records one back-office mutation.
type AuditLog struct {
	ID          string    `bson:"_id" json:"id"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Entity      string    `bson:"entity" json:"entity"`
	EntityID    string    `bson:"entityId" json:"entityId"`
	Action      string    `bson:"action" json:"action"`
	PerformedBy string    `bson:"performedBy" json:"performedBy"` // user sub or "system"
	Data        any       `bson:"data,omitempty" json:"data,omitempty"`
}
