//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Donation statuses reported by the payment flow.
const (
	DonationStatusPending = "pending"
	DonationStatusSuccess = "success"
	DonationStatusFailed  = "failed"
)

// Donation is a monetary donation made by a user.
type Donation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	OrderID    string    `json:"order_id"`
	DonorName  string    `json:"donor_name"`
	DonorEmail string    `json:"donor_email"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ItemID implements Item.
func (d Donation) ItemID() string { return d.ID }

// ItemStatus implements Item.
func (d Donation) ItemStatus() string { return d.Status }

// Apply implements Item.
func (d Donation) Apply(ch Change) Donation {
	if ch.Status != nil {
		d.Status = *ch.Status
	}
	return d
}
