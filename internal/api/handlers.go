/**
 * @description
 * This file contains the HTTP handlers shared plumbing for the fundraising-service: the
 * `Handlers` struct, JSON response helpers and the mapping from service errors to HTTP
 * status codes.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app: For the core application service and its error kinds.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"

	"github.com/DevifyPro/fundraising-app/internal/app"
)

const (
	maxJSONBodyBytes    = 64 << 10
	maxWebhookBodyBytes = 1 << 20
)

// Handlers holds the dependencies for the HTTP handlers.
type Handlers struct {
	service  *app.Service
	sessions *SessionManager
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, sessions *SessionManager) *Handlers {
	return &Handlers{service: service, sessions: sessions}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeDecodeError answers a body that decodeJSON rejected. A value of the wrong JSON type is
// reported against its field like any other validation error.
func writeDecodeError(w http.ResponseWriter, endpoint string, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=validation field=%s err=%v", endpoint, typeErr.Field, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("%s must be %s", typeErr.Field, describeJSONType(typeErr.Type)),
			"field": typeErr.Field,
		})
		return
	}
	log.Printf("level=warn component=api endpoint=%s outcome=reject reason=invalid_json err=%v", endpoint, err)
	writeError(w, http.StatusBadRequest, "Invalid request body")
}

func describeJSONType(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a whole number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a valid " + t.String()
	}
}

// writeServiceError maps a service error to its HTTP response. Configuration and unexpected
// errors are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, endpoint string, err error) {
	var validationErr *app.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=validation field=%s err=%v", endpoint, validationErr.Field, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Reason, "field": validationErr.Field})
	case errors.Is(err, app.ErrNotFound):
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=not_found err=%v", endpoint, err)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrStateConflict):
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=state_conflict err=%v", endpoint, err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrAuthentication):
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=unauthenticated err=%v", endpoint, err)
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		log.Printf("level=warn component=api endpoint=%s outcome=reject reason=forbidden err=%v", endpoint, err)
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrConfiguration):
		log.Printf("level=error component=api endpoint=%s outcome=failed reason=configuration err=%v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Payments are not available right now")
	default:
		log.Printf("level=error component=api endpoint=%s outcome=failed reason=unexpected err=%v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
