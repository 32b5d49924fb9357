package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("update task: %w", NewCapacityExceeded("u-1", 3))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.NotErrorIs(t, err, ErrNotFound)

	de := ToDomainError(err)
	require.Equal(t, "CAPACITY_EXCEEDED", de.Code)
	require.Equal(t, http.StatusConflict, de.HTTPStatus)
}

func TestToDomainError_Unknown(t *testing.T) {
	cause := errors.New("disk on fire")
	de := ToDomainError(cause)
	require.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	require.ErrorIs(t, de, cause)
	require.Nil(t, ToDomainError(nil))
}

func TestConstructorsStatus(t *testing.T) {
	cases := map[error]int{
		NewNotFound("task", nil):   http.StatusNotFound,
		NewDuplicateName("alice"):  http.StatusConflict,
		NewDuplicateTitle("write"): http.StatusConflict,
		NewValidation("bad"):       http.StatusBadRequest,
	}
	for err, status := range cases {
		require.Equal(t, status, ToDomainError(err).HTTPStatus, err.Error())
	}
}
