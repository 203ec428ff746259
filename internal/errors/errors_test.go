package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"assessr/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := InvalidInput("bin_width must be positive")
	err := Wrap(inner, "histogram request rejected")

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "histogram request rejected: bin_width must be positive", err.Error())
	assert.True(t, stderrors.Is(err, inner))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestGetCode_DomainErrors(t *testing.T) {
	assert.Equal(t, CodeNotFound, GetCode(fmt.Errorf("lookup: %w", core.ErrParcelNotFound)))
	assert.Equal(t, CodeNotFound, GetCode(Wrap(core.ErrAppealNotFound, "update appeal")))
	assert.Equal(t, CodeInvalidInput, GetCode(core.NewValidationError("trim", "must be 1.5 or 3")))
	assert.Equal(t, CodeInternalError, GetCode(stderrors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NotFound("parcel"), http.StatusNotFound},
		{InvalidInputf("limit %d out of range", 0), http.StatusBadRequest},
		{Conflict("appeal already decided"), http.StatusConflict},
		{New(CodeRateLimited, "slow down"), http.StatusTooManyRequests},
		{DatabaseError("query failed", stderrors.New("conn reset")), http.StatusServiceUnavailable},
		{stderrors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}
