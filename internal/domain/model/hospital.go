//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Hospital is a partner hospital. Hospitals carry no status; they can only be listed and deleted.
type Hospital struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Province  string    `json:"province"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemID implements Item.
func (h Hospital) ItemID() string { return h.ID }

// ItemStatus implements Item.
func (h Hospital) ItemStatus() string { return "" }

// Apply implements Item.
func (h Hospital) Apply(Change) Hospital { return h }
