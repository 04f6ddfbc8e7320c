//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Blood request statuses. Campaigns are approved to verified rather than completed.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCompleted = "completed"
	RequestStatusVerified  = "verified"
	RequestStatusExpired   = "expired"
)

// Event types served by the blood-requests endpoint.
const (
	EventTypeBloodRequest = "blood_request"
	EventTypeCampaign     = "campaign"
)

// BloodRequest is a hospital blood request or a donation campaign; EventType tells them apart.
type BloodRequest struct {
	ID             string    `json:"id"`
	RequesterName  string    `json:"requester_name"`
	RequesterPhone string    `json:"requester_phone"`
	HospitalName   string    `json:"hospital_name"`
	PatientName    string    `json:"patient_name"`
	EventName      string    `json:"event_name"`
	BloodType      string    `json:"blood_type"`
	Quantity       int64     `json:"quantity"`
	UrgencyLevel   string    `json:"urgency_level"`
	Diagnosis      string    `json:"diagnosis"`
	SlotsAvailable int64     `json:"slots_available"`
	SlotsBooked    int64     `json:"slots_booked"`
	Status         string    `json:"status"`
	EventType      string    `json:"event_type"`
	EventDate      time.Time `json:"event_date"`
	ExpiryDate     time.Time `json:"expiry_date"`
}

// ItemID implements Item.
func (b BloodRequest) ItemID() string { return b.ID }

// ItemStatus implements Item.
func (b BloodRequest) ItemStatus() string { return b.Status }

// Apply implements Item.
func (b BloodRequest) Apply(ch Change) BloodRequest {
	if ch.Status != nil {
		b.Status = *ch.Status
	}
	return b
}

// IsCampaign reports whether the record is a donation campaign.
func (b BloodRequest) IsCampaign() bool { return b.EventType == EventTypeCampaign }
