package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deckPayload struct {
	Name  string `json:"name" validate:"required,max=10"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type selfValidating struct {
	called bool
}

func (s *selfValidating) Validate() error {
	s.called = true
	return nil
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    deckPayload
	}{
		{"valid", `{"name":"Spanish","color":"#aabbcc"}`, false, deckPayload{Name: "Spanish", Color: "#aabbcc"}},
		{"trailing newline", "{\"name\":\"x\"}\n", false, deckPayload{Name: "x"}},
		{"malformed", `{"name":`, true, deckPayload{}},
		{"trailing value", `{"name":"a"}{"name":"b"}`, true, deckPayload{}},
		{"wrong type", `{"name":42}`, true, deckPayload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got deckPayload
			err := DecodeJSON(req, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	var got deckPayload

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.ErrorIs(t, DecodeJSON(req, &got), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("   "))
	assert.ErrorIs(t, DecodeJSON(req, &got), ErrEmptyBody)
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&deckPayload{Name: "ok"}))

	err := ValidateRequest(&deckPayload{})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "required", verrs[0].Tag())

	err = ValidateRequest(&deckPayload{Name: "ok", Color: "blue"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "hexcolor", verrs[0].Tag())

	s := &selfValidating{}
	assert.NoError(t, ValidateRequest(s))
	assert.True(t, s.called)
}
