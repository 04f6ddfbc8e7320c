//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Certificate is a donor certificate issued for a completed donation.
type Certificate struct {
	ID                string    `json:"id"`
	DonationID        string    `json:"donation_id"`
	DonorName         string    `json:"donor_name"`
	CertificateNumber string    `json:"certificate_number"`
	DigitalSignature  string    `json:"digital_signature"`
	CertificateURL    string    `json:"certificate_url"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// ItemID implements Item.
func (c Certificate) ItemID() string { return c.ID }

// ItemStatus implements Item.
func (c Certificate) ItemStatus() string { return c.Status }

// Apply implements Item.
func (c Certificate) Apply(ch Change) Certificate {
	if ch.Status != nil {
		c.Status = *ch.Status
	}
	return c
}

// CreateCertificateRequest is the payload for issuing a certificate.
type CreateCertificateRequest struct {
	DonationID        int64  `json:"donation_id"        validate:"required,gt=0"`
	UserID            int64  `json:"user_id"            validate:"required,gt=0"`
	CertificateNumber string `json:"certificate_number" validate:"required,max=64"`
	DigitalSignature  string `json:"digital_signature"  validate:"required"`
	CertificateURL    string `json:"certificate_url"    validate:"required,url"`
}
