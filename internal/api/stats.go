package api

import (
	"net/http"
	"time"

	apperrors "github.com/renderdragon/backend/internal/errors"
	"github.com/renderdragon/backend/internal/logger"
	"github.com/renderdragon/backend/internal/stats"
)

// StatsHandlers serves the public download counter and the credential probe
type StatsHandlers struct {
	keyNames []string
	keys     map[string]string
	now      func() time.Time
	log      *logger.Logger
}

func NewStatsHandlers(keyNames []string, keys map[string]string, now func() time.Time, log *logger.Logger) *StatsHandlers {
	return &StatsHandlers{
		keyNames: keyNames,
		keys:     keys,
		now:      now,
		log:      log.WithComponent("api"),
	}
}

// Downloads handles GET /api/stats/downloads
func (h *StatsHandlers) Downloads(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, stats.Downloads(h.now()))
	return nil
}

// CopyrightKeys handles GET /api/check-copyright-keys. Only key names are
// reported, never values.
func (h *StatsHandlers) CopyrightKeys(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	report := stats.CheckKeys(h.keyNames, h.keys)
	if !report.KeysAvailable {
		h.log.Debug(ctx, "copyright keys missing", map[string]interface{}{
			"missing": report.MissingKeys,
		})
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, report)
	return nil
}
