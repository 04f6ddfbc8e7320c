package httpx

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

// Create form resources.
const (
	resourceNotifications = "notifications"
	resourceCertificates  = "certificates"
)

// maxFormBytes caps mutation form bodies.
const maxFormBytes = 64 << 10

// mutationResponse is the JSON body returned to non-htmx clients.
type mutationResponse struct {
	Action      model.Action         `json:"action"`
	IDs         []string             `json:"ids,omitempty"`
	Reconcile   model.Reconcile      `json:"reconcile"`
	Applied     bool                 `json:"applied"`
	Skipped     bool                 `json:"skipped"`
	Optimistic  bool                 `json:"optimistic"`
	ServerError string               `json:"server_error,omitempty"`
	Items       int                  `json:"items"`
	Pagination  model.PaginationInfo `json:"pagination"`
}

// Mutate returns a handler performing action on the {resource} list.
func (h *UIHandlers) Mutate(action model.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.handleMutation(w, r, action)
	}
}

func (h *UIHandlers) handleMutation(w http.ResponseWriter, r *http.Request, action model.Action) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	spec := src.Spec()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	req := model.MutationRequest{Resource: spec.Key, Action: action}
	var selection *model.SelectionSet

	switch {
	case action == model.ActionCreate:
		if !spec.Creatable {
			h.mutationFailed(w, r, apperrors.Validationf("%s cannot be created from the dashboard", spec.Key))
			return
		}
		payload, err := decodeCreatePayload(r, spec.Key)
		if err != nil {
			h.mutationFailed(w, r, err)
			return
		}
		req.Payload = payload
	case action.IsBulk():
		if !spec.Selectable {
			h.mutationFailed(w, r, apperrors.Validationf("%s does not support bulk actions", spec.Key))
			return
		}
		if err := r.ParseForm(); err != nil {
			h.mutationFailed(w, r, apperrors.Validation("Invalid form submission"))
			return
		}
		selection = model.NewSelectionSet(r.Form["ids"]...)
	default:
		if err := r.ParseForm(); err != nil {
			h.mutationFailed(w, r, apperrors.Validation("Invalid form submission"))
			return
		}
		req.IDs = []string{r.PathValue(paramID)}
	}

	// Mutation forms carry the list view they were issued from; JSON clients use the URL query.
	values := r.URL.Query()
	if r.Form != nil {
		values = r.Form
	}
	q := queryFromValues(spec, values, h.maxPageSize())

	res, err := h.Dashboard.Mutate(r.Context(), service.MutationInput{
		Request:   req,
		Query:     q,
		Selection: selection,
	})
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.mutationDone(w, r, spec, q, res)
}

// mutationFailed reports an error that left the list unchanged.
func (h *UIHandlers) mutationFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().WarnContext(r.Context(), "mutation rejected", "path", r.URL.Path, "error", err)
	if !IsHTMX(r) {
		writeAppError(w, err)
		return
	}
	// 204 keeps the current rows on screen; the toast carries the reason.
	triggerToast(w, userMessage(err), toastError)
	HTMX(w).NoContent()
}

// mutationDone swaps in the reconciled results for htmx or returns the outcome as JSON.
func (h *UIHandlers) mutationDone(
	w http.ResponseWriter,
	r *http.Request,
	spec service.SourceSpec,
	q model.QueryState,
	res service.MutationResult,
) {
	out := res.Outcome
	if !IsHTMX(r) {
		body := mutationResponse{
			Action:     out.Action,
			IDs:        out.IDs,
			Reconcile:  out.Reconcile,
			Applied:    out.Applied,
			Skipped:    out.Skipped,
			Optimistic: out.Optimistic,
			Items:      len(res.Page.Items),
			Pagination: res.Page.Pagination,
		}
		status := http.StatusOK
		if out.ServerErr != nil {
			body.ServerError = userMessage(out.ServerErr)
			status = StatusForError(out.ServerErr)
		}
		WriteJSON(w, status, body)
		return
	}

	switch {
	case out.ServerErr != nil:
		triggerToast(w, "Updated locally, but the server reported: "+userMessage(out.ServerErr), toastWarning)
	case out.Skipped:
		triggerToast(w, "Nothing to change.", toastWarning)
	default:
		triggerToast(w, successMessage(out), toastSuccess)
	}
	if out.Action.IsBulk() {
		SetHXTrigger(w, "selection:cleared", nil)
	}
	if out.Action == model.ActionCreate {
		SetHXTrigger(w, "create:done", nil)
	}

	b := withListFrame(NewTemplateData(r, listMeta(spec)), spec, q)
	withListPage(b, spec, q, res.Page)
	h.renderListResults(w, r, b.Build())
}

func successMessage(out model.MutationOutcome) string {
	n := len(out.IDs)
	switch out.Action {
	case model.ActionApprove:
		return "Approved."
	case model.ActionReject:
		return "Rejected."
	case model.ActionMarkRead:
		return "Marked as read."
	case model.ActionMarkUnread:
		return "Marked as unread."
	case model.ActionDelete:
		return "Deleted."
	case model.ActionBulkDelete:
		return fmt.Sprintf("Deleted %d item(s).", n)
	case model.ActionBulkMarkRead:
		return fmt.Sprintf("Marked %d item(s) as read.", n)
	case model.ActionCreate:
		return "Created."
	default:
		return "Done."
	}
}

// decodeCreatePayload reads a create payload from a JSON body or a form.
func decodeCreatePayload(r *http.Request, resource string) (any, error) {
	if isJSON(r) {
		return decodeCreateJSON(r, resource)
	}
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Validation("Invalid form submission")
	}
	return createPayloadFromForm(resource, r.Form)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeCreateJSON(r *http.Request, resource string) (any, error) {
	switch resource {
	case resourceNotifications:
		var p model.CreateNotificationRequest
		if err := decodeStrict(r, &p); err != nil {
			return nil, err
		}
		return p, nil
	case resourceCertificates:
		var p model.CreateCertificateRequest
		if err := decodeStrict(r, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, apperrors.Validationf("%s cannot be created", resource)
	}
}

// createPayloadFromForm builds the typed create payload. Numeric ids that do not parse are
// reported as field errors; everything else is left to payload validation.
func createPayloadFromForm(resource string, form url.Values) (any, error) {
	field := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	id := func(k string) (int64, error) {
		raw := field(k)
		if raw == "" {
			return 0, nil
		}
		n, ok := parsePositiveInt(raw)
		if !ok {
			return 0, apperrors.ValidationField(k, k+" must be a positive number")
		}
		return n, nil
	}

	switch resource {
	case resourceNotifications:
		userID, err := id("user_id")
		if err != nil {
			return nil, err
		}
		return model.CreateNotificationRequest{
			UserID:           userID,
			Title:            field("title"),
			Message:          field("message"),
			NotificationType: field("notification_type"),
		}, nil
	case resourceCertificates:
		donationID, err := id("donation_id")
		if err != nil {
			return nil, err
		}
		userID, err := id("user_id")
		if err != nil {
			return nil, err
		}
		return model.CreateCertificateRequest{
			DonationID:        donationID,
			UserID:            userID,
			CertificateNumber: field("certificate_number"),
			DigitalSignature:  field("digital_signature"),
			CertificateURL:    field("certificate_url"),
		}, nil
	default:
		return nil, apperrors.Validationf("%s cannot be created", resource)
	}
}
