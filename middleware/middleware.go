// Package middleware validates JSON request bodies against a model class
// at the HTTP boundary. Valid payloads are instantiated and handed to the
// wrapped handler through the request context; invalid ones are rejected
// with a structured JSON error body before the handler runs.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/model"
)

// ctxKeyInstance is the typed context key for the decoded instance.
type ctxKeyInstance struct{}

// ContextWithInstance attaches a decoded instance to the context.
func ContextWithInstance(ctx context.Context, in *model.Instance) context.Context {
	return context.WithValue(ctx, ctxKeyInstance{}, in)
}

// InstanceFromContext retrieves the decoded instance from the context.
func InstanceFromContext(ctx context.Context) (*model.Instance, bool) {
	in, ok := ctx.Value(ctxKeyInstance{}).(*model.Instance)
	return in, ok
}

// ErrorPayload shapes field errors for JSON responses.
func ErrorPayload(errs databind.FieldErrors) map[string]any {
	return map[string]any{"errors": errs}
}

// Validate decodes the JSON request body, instantiates class from it and
// runs the declared validators. Malformed JSON and type violations are
// rejected with 400, validation failures with 422 and an ErrorPayload
// body. On success the instance rides the request context into next.
func Validate(class *model.Class, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var obj map[string]any
		if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		in, err := class.New(obj)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		if !in.Validate() {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorPayload(in.Errors()))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithInstance(r.Context(), in)))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
