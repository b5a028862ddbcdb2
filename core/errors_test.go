package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	notFound := errors.Wrap(NewNotFoundError("quiz"), "getting quiz")
	assert.True(t, IsNotFound(notFound))
	assert.Equal(t, "getting quiz: quiz not found", notFound.Error())

	denied := NewPermissionError("")
	assert.True(t, IsPermissionError(errors.Wrap(denied, "deleting")))
	assert.Equal(t, "permission denied", denied.Error())
	assert.False(t, IsPermissionError(notFound))

	fieldErr := NewFieldError("email", "invalid email")
	assert.True(t, IsValidationError(fieldErr))
	assert.True(t, IsInvalidInput(errors.Wrap(fieldErr, "registering")))
	assert.Equal(t, "invalid email", fieldErr.Error())
	assert.Equal(t, "title: required", NewValidationError(nil, FieldError{Field: "title", Error: "required"}).Error())

	shutdown := NewShutdownError("database is gone")
	assert.True(t, IsShutdown(errors.Wrap(shutdown, "querying")))
	assert.False(t, IsShutdown(notFound))
}
