package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationfFormatsFieldAndMessage(t *testing.T) {
	err := Validationf("content", "must not exceed %d characters", 500)
	require.EqualError(t, err, "content: must not exceed 500 characters")
}

func TestValidationfWithoutFieldOmitsPrefix(t *testing.T) {
	err := Validationf("", "owner_user_id is required")
	require.EqualError(t, err, "owner_user_id is required")
}

func TestNotFoundfPreservesSentinel(t *testing.T) {
	err := NotFoundf("memory %s", "m1")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Contains(t, err.Error(), "m1")
}

func TestValidationErrorAsUnwraps(t *testing.T) {
	var ve *ValidationError
	require.True(t, errors.As(Validationf("state", "invalid state %q", "X"), &ve))
	require.Equal(t, "state", ve.Field)
}
