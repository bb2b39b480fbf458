package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	t.Run("errors.Is matches sentinel of same kind", func(t *testing.T) {
		err := Conflict("time entry overlaps with existing entry %s", "abc")
		assert.True(t, errors.Is(err, ErrConflict))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("wrapped errors keep their kind", func(t *testing.T) {
		err := fmt.Errorf("create entry: %w", NotFound("user not found"))
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	})

	t.Run("forbidden carries key and levels", func(t *testing.T) {
		err := Forbidden("time:approve", "AUTHORIZED", "none")
		assert.Equal(t, "time:approve", err.Fields["key"])
		assert.Equal(t, "none", err.Fields["actual"])
		assert.Contains(t, err.Error(), "required: AUTHORIZED")
		assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
	})

	t.Run("unknown errors map to 500", func(t *testing.T) {
		err := errors.New("boom")
		assert.Equal(t, Kind(""), KindOf(err))
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
		assert.Equal(t, http.StatusConflict, HTTPStatus(InvalidState("frozen")))
		assert.Equal(t, http.StatusNotImplemented, HTTPStatus(NotImplemented("pause")))
	})
}
