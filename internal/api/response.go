package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/genetech/leadchat/internal/models"
)

// fallbackErrorResponse is marshaled once at startup so a failed encode can
// still produce a well-formed error body.
var fallbackErrorResponse []byte

func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("marshal fallback error response: %v", err))
	}
}

// writeJSONResponse marshals before touching the ResponseWriter so an
// encoding failure can still change the status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("writeJSONResponse: marshal failed", "error", err)
		body = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Error("writeJSONResponse: write failed", "error", err)
	}
}

// methodNotAllowed replies 405 and advertises the allowed methods.
func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
}
