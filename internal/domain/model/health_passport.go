//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Health passport statuses.
const (
	PassportStatusActive    = "active"
	PassportStatusExpired   = "expired"
	PassportStatusSuspended = "suspended"
)

// HealthPassport is a donor's health passport record.
type HealthPassport struct {
	ID             string    `json:"id"`
	UserName       string    `json:"user_name"`
	PassportNumber string    `json:"passport_number"`
	Status         string    `json:"status"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

// ItemID implements Item.
func (h HealthPassport) ItemID() string { return h.ID }

// ItemStatus implements Item.
func (h HealthPassport) ItemStatus() string { return h.Status }

// Apply implements Item.
func (h HealthPassport) Apply(ch Change) HealthPassport {
	if ch.Status != nil {
		h.Status = *ch.Status
	}
	return h
}
