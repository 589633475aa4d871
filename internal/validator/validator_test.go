package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyiK/subscription-lifecycle/internal/models"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(func() time.Time { return fixedNow })
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func validRequest() models.CreateSubscriptionRequest {
	return models.CreateSubscriptionRequest{
		Name:           "Ivan",
		UserID:         intPtr(1),
		Provider:       "GOOGLE",
		ExpirationDate: timePtr(fixedNow.Add(10 * 24 * time.Hour)),
	}
}

func TestValidate_PassesValidRequest(t *testing.T) {
	result := newTestValidator().Validate(validRequest())

	assert.False(t, result.HasErrors())
	assert.Empty(t, result.Errors())
}

func TestValidate_SingleRule(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *models.CreateSubscriptionRequest)
		code   int
		msg    string
	}{
		{"user id is nil", func(r *models.CreateSubscriptionRequest) { r.UserID = nil }, CodeInvalidUserID, "userId is invalid"},
		{"name is empty", func(r *models.CreateSubscriptionRequest) { r.Name = "" }, CodeInvalidName, "name is invalid"},
		{"name is whitespace", func(r *models.CreateSubscriptionRequest) { r.Name = " \t\n" }, CodeInvalidName, "name is invalid"},
		{"provider is unknown", func(r *models.CreateSubscriptionRequest) { r.Provider = "FAKE" }, CodeInvalidProvider, "provider is invalid"},
		{"provider is lowercase", func(r *models.CreateSubscriptionRequest) { r.Provider = "google" }, CodeInvalidProvider, "provider is invalid"},
		{"expiration date in past", func(r *models.CreateSubscriptionRequest) {
			r.ExpirationDate = timePtr(fixedNow.Add(-10 * 24 * time.Hour))
		}, CodeInvalidExpirationDate, "expirationDate is invalid"},
		{"expiration date equals now", func(r *models.CreateSubscriptionRequest) {
			r.ExpirationDate = timePtr(fixedNow)
		}, CodeInvalidExpirationDate, "expirationDate is invalid"},
		{"expiration date is nil", func(r *models.CreateSubscriptionRequest) { r.ExpirationDate = nil }, CodeInvalidExpirationDate, "expirationDate is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)

			result := newTestValidator().Validate(req)

			require.Len(t, result.Errors(), 1)
			assert.Equal(t, tt.code, result.Errors()[0].Code)
			assert.Equal(t, tt.msg, result.Errors()[0].Message)
		})
	}
}

func TestValidate_AccumulatesAllErrorsInOrder(t *testing.T) {
	req := models.CreateSubscriptionRequest{
		Name:           "",
		UserID:         nil,
		Provider:       "FAKE",
		ExpirationDate: nil,
	}

	result := newTestValidator().Validate(req)

	assert.Equal(t, []int{100, 101, 102, 103}, result.Codes())
}

func TestValidate_AcceptsApple(t *testing.T) {
	req := validRequest()
	req.Provider = "APPLE"

	assert.False(t, newTestValidator().Validate(req).HasErrors())
}

func TestValidationResult_ErrorsIsCopy(t *testing.T) {
	var result ValidationResult
	result.Add(NewError(CodeInvalidName, "name is invalid"))

	errs := result.Errors()
	errs[0].Code = 999

	assert.Equal(t, CodeInvalidName, result.Errors()[0].Code)
	assert.Equal(t, "101: name is invalid", result.String())
}

func TestNew_DefaultsToWallClock(t *testing.T) {
	v := New(nil)
	req := validRequest()
	req.ExpirationDate = timePtr(time.Now().Add(time.Hour))

	assert.False(t, v.Validate(req).HasErrors())
}
