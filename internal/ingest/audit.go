package ingest

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/models"
	"github.com/lox/grlweather/internal/owm"
	"github.com/lox/grlweather/internal/store"
)

// AuditedFetcher records every fetch and its raw payload in the store.
// Audit failures are logged and never change the fetch result.
type AuditedFetcher struct {
	next   cities.Fetcher
	store  *store.Store
	logger *slog.Logger
}

func NewAuditedFetcher(next cities.Fetcher, st *store.Store, logger *slog.Logger) *AuditedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedFetcher{next: next, store: st, logger: logger}
}

func (a *AuditedFetcher) FetchWeather(ctx context.Context, city string) (models.WeatherRecord, error) {
	requestID := uuid.NewString()
	run, err := a.store.StartFetchRun(requestID, city)
	if err != nil {
		a.logger.Warn("audit: start fetch run", "city", city, "request_id", requestID, "error", err)
	}

	rec, fetchErr := a.next.FetchWeather(ctx, city)

	if run == nil {
		return rec, fetchErr
	}

	run.Success = fetchErr == nil
	if fetchErr != nil {
		run.ErrorMessage = sql.NullString{String: fetchErr.Error(), Valid: true}
		var fe *owm.FetchError
		if errors.As(fetchErr, &fe) && fe.StatusCode > 0 {
			run.HTTPStatus = sql.NullInt64{Int64: int64(fe.StatusCode), Valid: true}
		}
	}
	if len(rec) > 0 {
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(len(rec)), Valid: true}
		if _, err := a.store.StoreRawPayload(&run.ID, city, rec); err != nil {
			a.logger.Warn("audit: store raw payload", "city", city, "request_id", requestID, "error", err)
		}
	}
	if err := a.store.CompleteFetchRun(run); err != nil {
		a.logger.Warn("audit: complete fetch run", "city", city, "request_id", requestID, "error", err)
	}

	a.logger.Debug("audit: fetch recorded", "city", city, "request_id", requestID, "success", run.Success)
	return rec, fetchErr
}
