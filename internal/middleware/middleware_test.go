package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf64/shift"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		seen = RequestID(r.Context())
		return nil
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec := httptest.NewRecorder()

		require.NoError(t, h(rec, req, shift.Route{}))
		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	})

	t.Run("generates missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h(rec, req, shift.Route{}))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})
}

func TestErrorMiddleware(t *testing.T) {
	errTeapot := errors.New("short and stout")
	status := func(err error) int {
		if errors.Is(err, errTeapot) {
			return http.StatusTeapot
		}
		return http.StatusInternalServerError
	}
	mw := ErrorMiddleware(slog.New(slog.DiscardHandler), status)

	h := mw(func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		return errTeapot
	})

	rec := httptest.NewRecorder()
	err := h(rec, httptest.NewRequest(http.MethodGet, "/", nil), shift.Route{})

	assert.ErrorIs(t, err, errTeapot)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "short and stout", body["error"])
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(OptionsHandler)
	rec := httptest.NewRecorder()

	require.NoError(t, h(rec, httptest.NewRequest(http.MethodOptions, "/audit", nil), shift.Route{}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
