package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// HandleGetSchema returns the definition the initializer applies
func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.initializer.Definition())
}

// HandleInitialize applies the schema. With ?dry_run=true it only reports
// the steps that would run.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "dry_run must be a boolean")
			return
		}
		dryRun = parsed
	}

	if dryRun {
		steps, err := h.initializer.Plan(r.Context())
		if err != nil {
			h.logger.Warn("schema plan failed", zap.Error(err))
			WriteJSONError(w, statusFor(err), err.Error())
			return
		}
		if steps == nil {
			steps = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"dry_run": true,
			"steps":   steps,
		})
		return
	}

	if err := h.initializer.Initialize(r.Context()); err != nil {
		h.logger.Error("schema initialization failed", zap.Error(err))
		WriteJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"collections": len(h.initializer.Definition().Collections),
	})
}
