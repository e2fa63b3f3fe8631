package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placementProbe struct {
	User        string  `json:"user" validate:"required"`
	TotalAmount float64 `json:"totalAmount" validate:"required,gt=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Status      string  `json:"status" validate:"omitempty,oneof=PENDING DEMO"`
}

func decodeProbe(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	var probe placementProbe
	return DecodeAndValidate(req, &probe)
}

func TestDecodeAndValidate(t *testing.T) {
	assert.NoError(t, decodeProbe(t, `{"user":"12345","totalAmount":2.05}`))
	assert.Error(t, decodeProbe(t, `{"totalAmount":2.05}`), "missing required field")
	assert.Error(t, decodeProbe(t, `{"user":"12345","totalAmount":0}`), "gt=0 rejects zero")
	assert.Error(t, decodeProbe(t, `{"user":"12345","totalAmount":1,"image":"nope"}`), "url tag")
	assert.Error(t, decodeProbe(t, `{"user":"12345","totalAmount":1,"status":"SHIPPED"}`), "oneof tag")
	assert.Error(t, decodeProbe(t, `{not json`), "malformed body")
}

func TestFormatValidationErrors(t *testing.T) {
	err := decodeProbe(t, `{"totalAmount":-1,"image":"nope"}`)
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	require.NotEmpty(t, formatted)

	byField := make(map[string]string, len(formatted))
	for _, fe := range formatted {
		byField[fe.Field] = fe.Message
	}
	assert.Equal(t, "This field is required", byField["User"])
	assert.Equal(t, "Invalid URL", byField["Image"])
	assert.Contains(t, byField["TotalAmount"], "greater than")
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(assert.AnError))
}
