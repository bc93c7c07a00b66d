package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/scry-flashcards/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "with cause",
			err:  NewServiceError("deck", "create_deck", errors.New("disk full")),
			want: "deck service create_deck operation failed: disk full",
		},
		{
			name: "without cause",
			err:  NewServiceError("deck", "delete_card", nil),
			want: "deck service delete_card operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestServiceError_Matching(t *testing.T) {
	cause := fmt.Errorf("load deck: %w", store.ErrDeckNotFound)
	err := error(NewServiceError("deck", "get_deck", cause))

	assert.ErrorIs(t, err, store.ErrDeckNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrCardNotFound)

	wrapped := fmt.Errorf("handler: %w", err)
	var svcErr *ServiceError
	require.ErrorAs(t, wrapped, &svcErr)
	assert.Equal(t, "deck", svcErr.Service)
	assert.Equal(t, "get_deck", svcErr.Op)

	assert.Nil(t, NewServiceError("deck", "x", nil).Unwrap())
}
