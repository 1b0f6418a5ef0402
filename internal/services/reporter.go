package services

import (
	"context"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/notify"
	"github.com/speisly/mensa-api/internal/repo"
)

// Reporter records operational anomalies.
type Reporter interface {
	Report(ctx context.Context, message string, fields map[string]any)
}

// ErrorReporter writes each anomaly to the log, the error_log table and
// the notifier. Failures of any sink are logged and swallowed.
type ErrorReporter struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	// DisableNotify keeps reports out of the chat channel.
	DisableNotify bool
}

const logCtxPreview = 75

// Report records message with its context.
func (r *ErrorReporter) Report(ctx context.Context, message string, fields map[string]any) {
	raw, err := json.Marshal(fields)
	if err != nil {
		raw = []byte("null")
	}
	ctxJSON := string(raw)

	log.Error().Str("ctx", previewCtx(ctxJSON)).Msgf("[logError] %s", message)

	// Reports must survive a cancelled request.
	bg := context.WithoutCancel(ctx)

	if r.DB != nil {
		if _, err := repo.CreateErrorLog(bg, r.DB, message, ctxJSON); err != nil {
			log.Warn().Err(err).Msg("error_log insert failed")
		}
	}
	if r.DisableNotify || r.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(bg, 15*time.Second)
	defer cancel()
	if err := r.Notifier.Notify(nctx, "[logError] "+message); err != nil {
		log.Warn().Err(err).Msg("anomaly notification failed")
	}
}

// previewCtx shortens s to at most logCtxPreview bytes without splitting
// a UTF-8 sequence.
func previewCtx(s string) string {
	if len(s) <= logCtxPreview {
		return s
	}
	cut := logCtxPreview
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + " [...]"
}

// nopReporter drops reports; used when a service is built without one.
type nopReporter struct{}

func (nopReporter) Report(context.Context, string, map[string]any) {}
