package darahapi

import (
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// Dashboard resource keys.
const (
	ResourceCertificates    = "certificates"
	ResourceDonations       = "donations"
	ResourceDonors          = "donors"
	ResourceRequests        = "requests"
	ResourceCampaigns       = "campaigns"
	ResourceNotifications   = "notifications"
	ResourceHealthPassports = "health-passports"
	ResourceHospitals       = "hospitals"
)

// Descriptor is the untyped description of a list resource.
type Descriptor struct {
	Key   string
	Title string
	// Path is the API path relative to the base URL.
	Path string
	// Fixed are query parameters sent with every list request.
	Fixed map[string]string
	// PageSize is the page size the list view requests.
	PageSize int
	// Statuses are the status filter options, without "all".
	Statuses []string
	// Filters are the extra query parameters the list accepts from the caller.
	Filters []string
	Targets core.StatusTargets
	// Selectable enables bulk selection in list views.
	Selectable bool
	// Unpaged endpoints return the whole collection in one response; search, filters
	// and paging are applied locally through the resource's Match.
	Unpaged bool
}

// CanApprove reports whether items of the resource can be approved.
func (d Descriptor) CanApprove() bool { return d.Targets.Approve != "" }

// CanReject reports whether items of the resource can be rejected.
func (d Descriptor) CanReject() bool { return d.Targets.Reject != "" }

// AllowsFilter reports whether key is an accepted extra filter.
func (d Descriptor) AllowsFilter(key string) bool {
	for _, f := range d.Filters {
		if f == key {
			return true
		}
	}
	return false
}

// Resource binds a descriptor to the mapper that builds its item type.
type Resource[T model.Item[T]] struct {
	Descriptor
	Map func(Record) T
	// Match reports whether an item satisfies the search and filters of q.
	// Only unpaged resources use it.
	Match func(T, model.QueryState) bool
}

// Certificates lists issued donor certificates.
var Certificates = Resource[model.Certificate]{
	Descriptor: Descriptor{
		Key:      ResourceCertificates,
		Title:    "Sertifikat",
		Path:     "/admin/certificates",
		PageSize: 10,
	},
	Map: func(r Record) model.Certificate {
		return model.Certificate{
			ID:                r.StringOr("id", ""),
			DonationID:        r.String("donation_id || donation.id"),
			DonorName:         r.String("user.name || donation.user.name || donor_name"),
			CertificateNumber: r.String("certificate_number"),
			DigitalSignature:  r.String("digital_signature"),
			CertificateURL:    r.StringOr("certificate_url", ""),
			Status:            r.String("status"),
			CreatedAt:         r.Time("created_at"),
		}
	},
}

// Donations lists monetary donations.
var Donations = Resource[model.Donation]{
	Descriptor: Descriptor{
		Key:      ResourceDonations,
		Title:    "Donasi",
		Path:     "/admin/donations",
		PageSize: 10,
		Statuses: []string{model.DonationStatusPending, model.DonationStatusSuccess, model.DonationStatusFailed},
		Filters:  []string{"date_filter"},
		Targets:  core.StatusTargets{Approve: model.DonationStatusSuccess, Reject: model.DonationStatusFailed},
	},
	Map: func(r Record) model.Donation {
		return model.Donation{
			ID:         r.StringOr("id", ""),
			UserID:     r.String("user_id || user.id"),
			OrderID:    r.String("order_id || transaction_id"),
			DonorName:  r.String("user.name || donor_name || name"),
			DonorEmail: r.String("user.email || donor_email || email"),
			Amount:     r.Int("amount"),
			Status:     r.String("status"),
			CreatedAt:  r.Time("created_at"),
		}
	},
}

// Donors lists donor registrations for donation schedules.
var Donors = Resource[model.Donor]{
	Descriptor: Descriptor{
		Key:      ResourceDonors,
		Title:    "Pendonor",
		Path:     "/admin/donors",
		PageSize: 10,
		Statuses: []string{
			model.RegistrationStatusPending,
			model.RegistrationStatusApproved,
			model.RegistrationStatusRejected,
		},
		Filters: []string{"blood_type"},
		Targets: core.StatusTargets{
			Approve: model.RegistrationStatusApproved,
			Reject:  model.RegistrationStatusRejected,
		},
	},
	Map: func(r Record) model.Donor {
		return model.Donor{
			ID:         r.StringOr("id", ""),
			UserID:     r.String("user_id || user.id || registration.user.id"),
			ScheduleID: r.String("schedule_id || donor_schedule_id"),
			DonorName:  r.String("user.name || registration.user.name || donor_name"),
			DonorEmail: r.String("user.email || registration.user.email || donor_email"),
			BloodType:  r.String("user.blood_type || blood_type"),
			Status:     r.String("status"),
			Notes:      r.Text("notes"),
			CreatedAt:  r.Time("created_at"),
		}
	},
}

var bloodRequestStatuses = []string{
	model.RequestStatusPending,
	model.RequestStatusApproved,
	model.RequestStatusRejected,
	model.RequestStatusCompleted,
}

func mapBloodRequest(r Record) model.BloodRequest {
	return model.BloodRequest{
		ID:             r.StringOr("id", ""),
		RequesterName:  r.String("user.name || requester_name"),
		RequesterPhone: r.String("user.phone || phone"),
		HospitalName:   r.String("hospital.name || hospital_name"),
		PatientName:    r.String("patient_name"),
		EventName:      r.Text("event_name"),
		BloodType:      r.String("blood_type"),
		Quantity:       r.Int("quantity"),
		UrgencyLevel:   r.String("urgency_level"),
		Diagnosis:      r.Text("diagnosis"),
		SlotsAvailable: r.Int("slots_available"),
		SlotsBooked:    r.Int("slots_booked"),
		Status:         r.String("status"),
		EventType:      r.String("event_type"),
		EventDate:      r.Time("event_date"),
		ExpiryDate:     r.Time("expiry_date"),
	}
}

// Requests lists hospital blood requests.
var Requests = Resource[model.BloodRequest]{
	Descriptor: Descriptor{
		Key:      ResourceRequests,
		Title:    "Permintaan Darah",
		Path:     "/admin/blood-requests",
		Fixed:    map[string]string{"event_type": model.EventTypeBloodRequest},
		PageSize: 10,
		Statuses: bloodRequestStatuses,
		Filters:  []string{"urgency_level", "blood_type"},
		Targets:  core.StatusTargets{Approve: model.RequestStatusCompleted, Reject: model.RequestStatusRejected},
	},
	Map: mapBloodRequest,
}

// Campaigns lists donation campaigns, served by the blood-requests endpoint.
// Approving a campaign verifies it.
var Campaigns = Resource[model.BloodRequest]{
	Descriptor: Descriptor{
		Key:      ResourceCampaigns,
		Title:    "Kampanye",
		Path:     "/admin/blood-requests",
		Fixed:    map[string]string{"event_type": model.EventTypeCampaign},
		PageSize: 16,
		Statuses: []string{
			model.RequestStatusPending,
			model.RequestStatusVerified,
			model.RequestStatusCompleted,
			model.RequestStatusRejected,
			model.RequestStatusExpired,
		},
		Filters: []string{"urgency_level", "blood_type"},
		Targets: core.StatusTargets{Approve: model.RequestStatusVerified, Reject: model.RequestStatusRejected},
	},
	Map: mapBloodRequest,
}

// Notifications lists admin notifications. Their status is the read state.
var Notifications = Resource[model.Notification]{
	Descriptor: Descriptor{
		Key:        ResourceNotifications,
		Title:      "Notifikasi",
		Path:       "/admin/notifications",
		PageSize:   10,
		Statuses:   []string{model.NotificationFilterRead, model.NotificationFilterUnread},
		Filters:    []string{"notification_type"},
		Selectable: true,
	},
	Map: func(r Record) model.Notification {
		return model.Notification{
			ID:               r.StringOr("id", ""),
			UserID:           r.String("user_id || user.id"),
			Title:            r.Text("title"),
			Message:          r.Text("message"),
			NotificationType: r.String("notification_type || type"),
			IsRead:           r.Bool("is_read"),
			CreatedAt:        r.Time("created_at"),
		}
	},
}

// HealthPassports lists donor health passports.
var HealthPassports = Resource[model.HealthPassport]{
	Descriptor: Descriptor{
		Key:      ResourceHealthPassports,
		Title:    "Paspor Kesehatan",
		Path:     "/admin/health-passports",
		PageSize: 10,
		Statuses: []string{model.PassportStatusActive, model.PassportStatusExpired, model.PassportStatusSuspended},
		Targets:  core.StatusTargets{Approve: model.PassportStatusActive, Reject: model.PassportStatusSuspended},
	},
	Map: func(r Record) model.HealthPassport {
		return model.HealthPassport{
			ID:             r.StringOr("id", ""),
			UserName:       r.String("user.name || user_name"),
			PassportNumber: r.String("passport_number"),
			Status:         r.String("status"),
			ExpiryDate:     r.Time("expiry_date"),
		}
	},
}

// Hospitals lists partner hospitals. GET /hospital is not paged.
var Hospitals = Resource[model.Hospital]{
	Descriptor: Descriptor{
		Key:      ResourceHospitals,
		Title:    "Rumah Sakit",
		Path:     "/hospital",
		PageSize: 10,
		Filters:  []string{"province", "city"},
		Unpaged:  true,
	},
	Map: func(r Record) model.Hospital {
		return model.Hospital{
			ID:        r.StringOr("id", ""),
			Name:      r.String("name"),
			Address:   r.Text("address"),
			City:      r.String("city"),
			Province:  r.String("province"),
			Latitude:  r.Float("latitude"),
			Longitude: r.Float("longitude"),
			CreatedAt: r.Time("created_at"),
		}
	},
	Match: matchHospital,
}

// matchHospital searches name, address, city and province, and compares the
// province and city filters case-insensitively.
func matchHospital(h model.Hospital, q model.QueryState) bool {
	if v := q.Filters["province"]; v != "" && !strings.EqualFold(h.Province, v) {
		return false
	}
	if v := q.Filters["city"]; v != "" && !strings.EqualFold(h.City, v) {
		return false
	}
	term := strings.ToLower(q.TrimmedSearch())
	if term == "" {
		return true
	}
	for _, f := range []string{h.Name, h.Address, h.City, h.Province} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Descriptors returns every resource in navigation order.
func Descriptors() []Descriptor {
	return []Descriptor{
		Requests.Descriptor,
		Campaigns.Descriptor,
		Donors.Descriptor,
		Donations.Descriptor,
		Certificates.Descriptor,
		HealthPassports.Descriptor,
		Hospitals.Descriptor,
		Notifications.Descriptor,
	}
}

// Lookup returns the descriptor registered under key.
func Lookup(key string) (Descriptor, bool) {
	for _, d := range Descriptors() {
		if d.Key == key {
			return d, true
		}
	}
	return Descriptor{}, false
}
