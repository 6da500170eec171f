package test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/api/httperrors"
)

// ParseResponseBody parses the recorded response body into v.
func ParseResponseBody(t *testing.T, res *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(res.Result().Body).Decode(&v); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
}

// ParseResponseAndValidate parses the recorded response body into v and runs
// its go-openapi validation.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v runtime.Validatable) {
	t.Helper()

	ParseResponseBody(t, res, &v)

	if err := v.Validate(strfmt.Default); err != nil {
		t.Fatalf("failed to validate response: %v", err)
	}
}

// RequireHTTPError requires the response to carry the given public HTTP error.
func RequireHTTPError(t *testing.T, res *httptest.ResponseRecorder, httpError *httperrors.HTTPError) {
	t.Helper()

	require.Equal(t, int(*httpError.Code), res.Result().StatusCode)

	var response httperrors.HTTPError
	ParseResponseBody(t, res, &response)

	require.Equal(t, *httpError.Code, *response.Code)
	require.Equal(t, *httpError.Type, *response.Type)
	require.Equal(t, *httpError.Title, *response.Title)
}
