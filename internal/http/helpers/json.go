// Package helpers: lectura/escritura JSON y el formato uniforme de error.
package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/fabula/internal/http/middlewares"
)

// apiError es el cuerpo uniforme de error de toda la API.
type apiError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// WriteJSON serializa v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError responde el error uniforme, incluyendo el request id si viaja
// en el contexto.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	WriteJSON(w, status, apiError{
		Error:       code,
		Description: description,
		RequestID:   middlewares.GetRequestID(r.Context()),
	})
}

const maxBodyBytes = 1 << 20 // 1 MiB

// ReadJSON decodifica el body JSON en dst. Exige Content-Type JSON (si viene
// seteado), acota el tamaño y rechaza campos desconocidos.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if !strings.Contains(strings.ToLower(ct), "application/json") {
			return fmt.Errorf("unsupported content type %q", ct)
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	// Un solo documento JSON por request.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}
