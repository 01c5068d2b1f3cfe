package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/ingestion"
	"github.com/paycms/console/internal/reconciliation"
	"github.com/paycms/console/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	cms        *cms.Service
	importer   *ingestion.Service
	reconciler *reconciliation.Service
	users      *repository.UserRepo
	log        *zap.Logger
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func resultBody(re *cms.ResultError) map[string]any {
	return map[string]any{"resultCd": re.Code, "resultMsg": re.Message}
}

// writeResult renders a CMS outcome. Business failures are reported with
// HTTP 200 and their result code; anything else is an internal error.
func (h *Handlers) writeResult(w http.ResponseWriter, err error, extra map[string]any) {
	if err != nil {
		re, ok := cms.AsResult(err)
		if !ok {
			h.log.Error("cms request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, resultBody(re))
		return
	}

	body := map[string]any{"resultCd": cms.CodeOK, "resultMsg": "OK"}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	return err
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// parseStatus reads an optional integer status filter.
func parseStatus(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
