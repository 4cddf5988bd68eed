package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/yousuf64/shift"
)

// RequestIDHeader carries the request id between client and server
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// CORSMiddleware handles CORS requests with default settings
func CORSMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")
		return next(w, r, route)
	}
}

// OptionsHandler answers CORS preflight requests
func OptionsHandler(w http.ResponseWriter, r *http.Request, route shift.Route) error {
	w.WriteHeader(http.StatusOK)
	return nil
}

// RequestIDMiddleware propagates the caller's request id or assigns a new one
func RequestIDMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		return next(w, r.WithContext(ctx), route)
	}
}

// RequestID returns the request id stored on ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// StatusFunc maps a handler error to an HTTP status code
type StatusFunc func(error) int

// ErrorMiddleware logs handler errors and writes them as a JSON error body
func ErrorMiddleware(logger *slog.Logger, status StatusFunc) func(shift.HandlerFunc) shift.HandlerFunc {
	return func(next shift.HandlerFunc) shift.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
			err := next(w, r, route)
			if err == nil {
				return nil
			}

			code := http.StatusInternalServerError
			if status != nil {
				code = status(err)
			}

			level := slog.LevelWarn
			if code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "Request error",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", RequestID(r.Context())),
				slog.Int("status", code),
				slog.Any("error", err))

			WriteJSON(w, code, map[string]string{"error": err.Error()})
			return err
		}
	}
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
