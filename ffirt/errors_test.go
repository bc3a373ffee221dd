package ffirt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetErrorWrapsPlainErrors(t *testing.T) {
	var out uintptr
	SetError(&out, errors.New("division by zero"))
	require.NotZero(t, out)

	e := Take[*Error](Ptr(out))
	assert.Equal(t, ErrorDomain, e.Domain)
	assert.Equal(t, "division by zero", e.Message)
	assert.EqualError(t, errors.Unwrap(e), "division by zero")
}

func TestSetErrorRelaysErrorObjectsVerbatim(t *testing.T) {
	custom := NewError("calc-error-quark", 3, "overflow after %d steps", 4)

	var out uintptr
	SetError(&out, fmt.Errorf("adding: %w", custom))
	assert.Same(t, custom, Take[*Error](Ptr(out)))
}

func TestSetErrorIgnoresNilSlot(t *testing.T) {
	base := LiveHandles()
	assert.NotPanics(t, func() { SetError(nil, errors.New("lost")) })
	assert.Equal(t, base, LiveHandles())

	var out uintptr
	SetError(&out, nil)
	assert.Zero(t, out)
}

func TestErrorMatchesByDomainAndCode(t *testing.T) {
	copied := &Error{Domain: IOErrorDomain, Code: IOErrorCancelled, Message: "other text"}

	assert.ErrorIs(t, copied, ErrCancelled)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", ErrCancelled), ErrCancelled)
	assert.NotErrorIs(t, ErrForeignResult, ErrCancelled)
	assert.Equal(t, "Operation was cancelled (g-io-error-quark:19)", ErrCancelled.Error())
}
