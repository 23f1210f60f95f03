package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kubervise/kubervise-manager/internal/errdef"

	"github.com/stretchr/testify/assert"
)

func TestIsForbidden(t *testing.T) {
	assert.False(t, errdef.IsForbidden(errors.New("some error")))
	assert.True(t, errdef.IsForbidden(errdef.NewForbidden("some error")))
}

func TestIsBadRequest(t *testing.T) {
	assert.False(t, errdef.IsBadRequest(errors.New("some error")))
	assert.True(t, errdef.IsBadRequest(errdef.NewBadRequest("some error")))
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, errdef.IsDuplicated(errors.New("some error")))
	assert.True(t, errdef.IsDuplicated(errdef.NewDuplicated("some error")))
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, errdef.IsUnauthorized(errors.New("some error")))
	assert.True(t, errdef.IsUnauthorized(errdef.NewUnauthorized("some error")))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, errdef.IsNotFound(errors.New("some error")))
	assert.True(t, errdef.IsNotFound(errdef.NewNotFound("some error")))
}

func TestIsConflict(t *testing.T) {
	assert.False(t, errdef.IsConflict(errors.New("some error")))
	assert.True(t, errdef.IsConflict(errdef.NewConflict("some error")))
}

func TestIsExpired(t *testing.T) {
	assert.False(t, errdef.IsExpired(errors.New("some error")))
	assert.True(t, errdef.IsExpired(errdef.NewExpired("install token %q expired", "abc")))
}

func TestIsAlreadyConsumed(t *testing.T) {
	assert.False(t, errdef.IsAlreadyConsumed(errors.New("some error")))
	assert.False(t, errdef.IsAlreadyConsumed(errdef.NewExpired("some error")))
	assert.True(t, errdef.IsAlreadyConsumed(errdef.NewAlreadyConsumed("some error")))
}

func TestIsWrapped(t *testing.T) {
	err := fmt.Errorf("failed to redeem: %w", errdef.NewExpired("token expired"))

	assert.True(t, errdef.IsExpired(err))
	assert.Equal(t, "failed to redeem: token expired", err.Error())
}
