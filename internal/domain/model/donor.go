//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Donor registration statuses.
const (
	RegistrationStatusPending  = "pending"
	RegistrationStatusApproved = "approved"
	RegistrationStatusRejected = "rejected"
)

// Donor is a donor registration for a donation schedule.
type Donor struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ScheduleID string    `json:"schedule_id"`
	DonorName  string    `json:"donor_name"`
	DonorEmail string    `json:"donor_email"`
	BloodType  string    `json:"blood_type"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

// ItemID implements Item.
func (d Donor) ItemID() string { return d.ID }

// ItemStatus implements Item.
func (d Donor) ItemStatus() string { return d.Status }

// Apply implements Item.
func (d Donor) Apply(ch Change) Donor {
	if ch.Status != nil {
		d.Status = *ch.Status
	}
	return d
}
