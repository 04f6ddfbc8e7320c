package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

func TestValidator_Notification(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		req       model.CreateNotificationRequest
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			req: model.CreateNotificationRequest{
				UserID: 3, Title: "Pengingat", Message: "Jadwal donor besok", NotificationType: "Reminder",
			},
		},
		{
			name:      "missing user",
			req:       model.CreateNotificationRequest{Title: "t", Message: "m", NotificationType: "System"},
			wantField: "user_id",
			wantMsg:   "user_id is required",
		},
		{
			name: "unknown type",
			req: model.CreateNotificationRequest{
				UserID: 1, Title: "t", Message: "m", NotificationType: "Promo",
			},
			wantField: "notification_type",
			wantMsg:   "notification_type must be one of: Request, Donation, Certificate, Reminder, System",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
			assert.Equal(t, tt.wantMsg, apperrors.UserMessage(err, ""))
		})
	}
}

func TestValidator_ListsEveryFailure(t *testing.T) {
	err := New().Validate(model.CreateCertificateRequest{DonationID: 1, UserID: 2, CertificateURL: "not a url"})
	require.Error(t, err)
	msg := apperrors.UserMessage(err, "")
	assert.Contains(t, msg, "certificate_number is required")
	assert.Contains(t, msg, "digital_signature is required")
	assert.Contains(t, msg, "certificate_url must be a valid URL")
	assert.Equal(t, "certificate_number", apperrors.GetField(err))
}

func TestValidator_NonStruct(t *testing.T) {
	err := New().Validate("payload")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
