//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Audit outcomes.
const (
	AuditOutcomeSuccess    = "success"
	AuditOutcomeFailed     = "failed"
	AuditOutcomeOptimistic = "optimistic_failure"
	AuditOutcomeSkipped    = "skipped"
)

// AuditEntry records one dispatched mutation.
type AuditEntry struct {
	ID         string    `json:"id"          db:"id"`
	Resource   string    `json:"resource"    db:"resource"`
	Action     Action    `json:"action"      db:"action"`
	ItemIDs    []string  `json:"item_ids"    db:"item_ids"`
	Outcome    string    `json:"outcome"     db:"outcome"`
	Error      string    `json:"error"       db:"error"`
	Optimistic bool      `json:"optimistic"  db:"optimistic"`
	Actor      string    `json:"actor"       db:"actor"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// AuditListOptions filters audit queries.
type AuditListOptions struct {
	Resource string
	Limit    int
	Offset   int
}
