package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ID    string `validate:"required,uuid"`
	Limit int    `validate:"min=1,max=50"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(sample{ID: "nope", Limit: 100})
	msg := FormatValidationError(err)

	assert.Contains(t, msg, "id must be a valid UUID")
	assert.Contains(t, msg, "limit must be at most 50")
}

func TestFormatValidationErrorPlainError(t *testing.T) {
	assert.Equal(t, "boom", FormatValidationError(errors.New("boom")))
}
