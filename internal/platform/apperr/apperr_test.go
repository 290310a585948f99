package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus_MapsWrappedKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: match m-1", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: match already exists", ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: status is pending", ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("%w: text too long", ErrValidation), http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: geocoder", ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "not found: animal a-1", Message(fmt.Errorf("%w: animal a-1", ErrNotFound)))
}
