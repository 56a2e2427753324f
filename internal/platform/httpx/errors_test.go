package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curastock/curastock/internal/shared"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get item: %w", shared.ErrNotFound), http.StatusNotFound},
		{"duplicate code", shared.ErrDuplicateCode, http.StatusUnprocessableEntity},
		{"invalid quantity", shared.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: code required", shared.ErrValidation), http.StatusBadRequest},
		{"idempotency conflict", shared.ErrIdempotencyConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			require.Equal(t, tc.wantStatus, problem.Status)
			require.NotEmpty(t, problem.Title)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Empty(t, problem.Detail)
}
