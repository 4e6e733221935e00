package perr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFormatsMessageWithoutCause(t *testing.T) {
	err := New(ParseError, "unexpected token %q", ")")
	assert.Equal(t, `PARSE_ERROR: unexpected token ")"`, err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapFormatsMessageWithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(PlannerInternal, cause, "failed to apply effect")

	assert.Equal(t, "PLANNER_INTERNAL: failed to apply effect: connection reset", err.Error())
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorsIsSeesThroughWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(InvalidDomain, cause, "bad action")

	assert.True(t, errors.Is(err, cause))
}

func TestErrorsAsRecoversCode(t *testing.T) {
	var target *Error
	err := New(UnknownSymbol, "unknown predicate %q", "foo")

	require := assert.New(t)
	require.True(errors.As(err, &target))
	require.Equal(UnknownSymbol, target.Code)
}
