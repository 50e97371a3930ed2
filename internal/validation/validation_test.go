package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mandawilson/smile-dashboard/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageRequest struct {
	Search string `query:"search" validate:"max=10"`
	Limit  int    `query:"limit" validate:"min=0,max=100"`
}

func (r *pageRequest) Validate() error {
	return Struct(r)
}

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "billed", Message: "must not repeat values"}}
}

func bind(t *testing.T, target string, payload Validatable) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return BindAndValidate(e.NewContext(req, httptest.NewRecorder()), payload)
}

func TestBindAndValidate(t *testing.T) {
	req := &pageRequest{}
	require.NoError(t, bind(t, "/?search=CCS&limit=20", req))
	assert.Equal(t, "CCS", req.Search)
	assert.Equal(t, 20, req.Limit)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	err := bind(t, "/?search=this-is-too-long&limit=500", &pageRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "search", Error: "must not exceed 10 characters"},
		{Field: "limit", Error: "must not exceed 100"},
	}, httpErr.Errors)
}

func TestBindAndValidateBindError(t *testing.T) {
	err := bind(t, "/?limit=many", &pageRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
}

func TestCustomValidationErrors(t *testing.T) {
	err := bind(t, "/", &customRequest{})

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, []errs.FieldError{{Field: "billed", Error: "must not repeat values"}}, httpErr.Errors)
}
