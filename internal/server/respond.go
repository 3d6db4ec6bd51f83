package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/logger"
)

// envelope is the body of every JSON response.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ok writes {"success":true, ...body}.
func ok(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

// fail writes {"success":false,"error":...} with the status of err's kind.
// Partially applied schema changes also report the failing step.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	body := envelope{"success": false, "error": errs.Message(err)}

	var step *errs.StepError
	if errors.As(err, &step) {
		body["step"] = step.Step
		body["committed"] = step.Committed
	}

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.ErrorWith("request failed", err, map[string]any{"status": status})
	} else {
		log.With().Err(err).Int("status", status).Logger().Debug("request rejected")
	}
	writeJSON(w, status, body)
}

// decode reads a JSON request body into v. Numbers in untyped fields stay
// json.Number so BIGINT and DECIMAL values keep every digit.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Invalid("request body is required")
		}
		return errs.Wrap(errs.ErrKindInvalidInput, "malformed JSON body", err)
	}
	return nil
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Invalid("%s must be an integer", name)
	}
	return n, nil
}
