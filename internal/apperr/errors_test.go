package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "validation with field",
			err:  Validation("m2", "must be greater than zero"),
			want: "validation error [VALIDATION_ERROR] m2: must be greater than zero",
		},
		{
			name: "domain",
			err:  Domain(http.StatusUnprocessableEntity, CodeZoneNotConfigured, "zone missing"),
			want: "domain error [ZONE_NOT_CONFIGURED]: zone missing",
		},
		{
			name: "transport with cause",
			err:  Transport(0, "request failed", errors.New("connection refused")),
			want: "transport error: request failed: connection refused",
		},
		{
			name: "transport status only",
			err:  Transport(http.StatusBadGateway, "HTTP 502", nil),
			want: "transport error: HTTP 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := Domain(http.StatusConflict, CodeSold, "lead already sold")
	wrapped := fmt.Errorf("failed to sell lead: %w", base)

	assert.Equal(t, KindDomain, KindOf(wrapped))
	assert.True(t, IsDomain(wrapped))
	assert.True(t, HasCode(wrapped, CodeSold))
	assert.False(t, HasCode(wrapped, CodeReserved))

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, e.Status)
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindUnknown, KindOf(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsZoneNotConfigured(err))
}

func TestIsZoneNotConfigured(t *testing.T) {
	assert.True(t, IsZoneNotConfigured(Domain(422, CodeZoneNotConfigured, "")))
	assert.False(t, IsZoneNotConfigured(Domain(422, CodeValidation, "")))
	assert.False(t, IsZoneNotConfigured(Transport(422, "HTTP 422", nil)))
}

func TestTelemetry_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Telemetry(cause)

	assert.Equal(t, KindTelemetry, err.Kind)
	assert.ErrorIs(t, err, cause)
}
