package httpx

import (
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/http/ui/viewmodel"
	"github.com/darahconnect/darah-dashboard/internal/http/uiutil"
)

const messagePreviewRunes = 80

// resourceCampaigns shares the BloodRequest item type with blood requests but shows event columns.
const resourceCampaigns = "campaigns"

func text(s string) viewmodel.Cell { return viewmodel.Cell{Text: uiutil.OrPlaceholder(s)} }
func badge(s string) viewmodel.Cell { return viewmodel.Cell{Text: uiutil.OrPlaceholder(s), Badge: true} }

func count(n int64) viewmodel.Cell { return viewmodel.Cell{Text: uiutil.FormatThousands(n)} }

// buildTable flattens a page of items into display rows. Unknown item types are skipped.
func buildTable(resource string, items []any) viewmodel.Table {
	t := viewmodel.Table{Columns: columnsFor(resource, items)}
	for _, it := range items {
		if row, ok := rowFor(resource, it); ok {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func columnsFor(resource string, items []any) []string {
	var sample any
	if len(items) > 0 {
		sample = items[0]
	}
	switch sample.(type) {
	case model.BloodRequest:
		if resource == resourceCampaigns {
			return []string{"Event", "Organizer", "Blood type", "Slots", "Event date", "Status"}
		}
		return []string{"Requester", "Hospital", "Patient", "Blood type", "Quantity", "Urgency", "Status"}
	case model.Certificate:
		return []string{"Number", "Donor", "Donation", "Issued", "Status"}
	case model.Donation:
		return []string{"Order", "Donor", "Email", "Amount", "Date", "Status"}
	case model.Donor:
		return []string{"Donor", "Email", "Blood type", "Schedule", "Registered", "Status"}
	case model.HealthPassport:
		return []string{"Passport", "Holder", "Expires", "Status"}
	case model.Hospital:
		return []string{"Hospital", "Address", "City", "Province", "Added"}
	case model.Notification:
		return []string{"Title", "Message", "Type", "Received", "Status"}
	default:
		return nil
	}
}

func rowFor(resource string, item any) (viewmodel.Row, bool) {
	switch v := item.(type) {
	case model.BloodRequest:
		row := viewmodel.Row{ID: v.ID, Status: v.Status}
		if resource == resourceCampaigns {
			row.Cells = []viewmodel.Cell{
				text(v.EventName),
				text(v.RequesterName),
				text(v.BloodType),
				{Text: uiutil.FormatThousands(v.SlotsBooked) + " / " + uiutil.FormatThousands(v.SlotsAvailable)},
				text(uiutil.FormatDate(v.EventDate)),
				badge(v.Status),
			}
			return row, true
		}
		row.Cells = []viewmodel.Cell{
			text(v.RequesterName),
			text(v.HospitalName),
			text(v.PatientName),
			text(v.BloodType),
			count(v.Quantity),
			badge(v.UrgencyLevel),
			badge(v.Status),
		}
		return row, true
	case model.Certificate:
		number := text(v.CertificateNumber)
		number.Link = v.CertificateURL
		return viewmodel.Row{ID: v.ID, Status: v.Status, Cells: []viewmodel.Cell{
			number,
			text(v.DonorName),
			text(v.DonationID),
			text(uiutil.FormatDate(v.CreatedAt)),
			badge(v.Status),
		}}, true
	case model.Donation:
		return viewmodel.Row{ID: v.ID, Status: v.Status, Cells: []viewmodel.Cell{
			text(v.OrderID),
			text(v.DonorName),
			text(v.DonorEmail),
			text(uiutil.FormatRupiah(v.Amount)),
			text(uiutil.FormatFriendlyDateTime(v.CreatedAt)),
			badge(v.Status),
		}}, true
	case model.Donor:
		return viewmodel.Row{ID: v.ID, Status: v.Status, Cells: []viewmodel.Cell{
			text(v.DonorName),
			text(v.DonorEmail),
			text(v.BloodType),
			text(v.ScheduleID),
			text(uiutil.FormatDate(v.CreatedAt)),
			badge(v.Status),
		}}, true
	case model.HealthPassport:
		return viewmodel.Row{ID: v.ID, Status: v.Status, Cells: []viewmodel.Cell{
			text(v.PassportNumber),
			text(v.UserName),
			text(uiutil.FormatDate(v.ExpiryDate)),
			badge(v.Status),
		}}, true
	case model.Hospital:
		return viewmodel.Row{ID: v.ID, Cells: []viewmodel.Cell{
			text(v.Name),
			text(uiutil.TruncateWithEllipsis(v.Address, messagePreviewRunes)),
			text(v.City),
			text(v.Province),
			text(uiutil.FormatDate(v.CreatedAt)),
		}}, true
	case model.Notification:
		return viewmodel.Row{ID: v.ID, Status: v.ItemStatus(), Readable: true, Read: v.IsRead, Cells: []viewmodel.Cell{
			text(v.Title),
			text(uiutil.TruncateWithEllipsis(v.Message, messagePreviewRunes)),
			text(v.NotificationType),
			text(uiutil.FriendlyRelativeTime(v.CreatedAt)),
			badge(v.ItemStatus()),
		}}, true
	default:
		return viewmodel.Row{}, false
	}
}
