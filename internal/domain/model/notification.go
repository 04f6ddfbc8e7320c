//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationTypeRequest     NotificationType = "Request"
	NotificationTypeDonation    NotificationType = "Donation"
	NotificationTypeCertificate NotificationType = "Certificate"
	NotificationTypeReminder    NotificationType = "Reminder"
	NotificationTypeSystem      NotificationType = "System"
)

// NotificationTypes lists the accepted notification types in display order.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationTypeRequest,
		NotificationTypeDonation,
		NotificationTypeCertificate,
		NotificationTypeReminder,
		NotificationTypeSystem,
	}
}

// Read-state filter values for the notifications list.
const (
	NotificationFilterRead   = "read"
	NotificationFilterUnread = "unread"
)

// Notification is an in-app notification addressed to a user.
type Notification struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notification_type"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// ItemID implements Item.
func (n Notification) ItemID() string { return n.ID }

// ItemStatus implements Item. Notifications expose their read state as a status.
func (n Notification) ItemStatus() string {
	if n.IsRead {
		return NotificationFilterRead
	}
	return NotificationFilterUnread
}

// Apply implements Item.
func (n Notification) Apply(ch Change) Notification {
	if ch.IsRead != nil {
		n.IsRead = *ch.IsRead
	}
	return n
}

// CreateNotificationRequest is the payload for sending a notification to a user.
type CreateNotificationRequest struct {
	UserID           int64  `json:"user_id"           validate:"required,gt=0"`
	Title            string `json:"title"             validate:"required,max=120"`
	Message          string `json:"message"           validate:"required,max=2000"`
	NotificationType string `json:"notification_type" validate:"required,oneof=Request Donation Certificate Reminder System"`
}
