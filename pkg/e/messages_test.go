package e

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"empty or null", EmptyOrNullMessage("Name"), "Name should not be empty or null"},
		{"min length", MinLengthMessage("Name", 3), "Name should have a minimum of 3 characters long"},
		{"max length", MaxLengthMessage("Description", 10000), "Description should have a maximum of 10000 characters long"},
		{"should not be null", ShouldNotBeNullMessage("Description"), "Description should not be null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEntityValidationErrorSurvivesWrap(t *testing.T) {
	err := Wrap("CategoryUseCase.CreateCategory", NewEntityValidationError(EmptyOrNullMessage("Name")))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEntityValidation))

	msg, ok := ValidationMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Name should not be empty or null", msg)
}

func TestValidationMessageIgnoresOtherErrors(t *testing.T) {
	_, ok := ValidationMessage(fmt.Errorf("boom: %w", ErrCategoryNotFound))
	assert.False(t, ok)
	assert.False(t, errors.Is(ErrCategoryNotFound, ErrEntityValidation))
}
