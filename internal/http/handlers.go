package http

import (
	"errors"
	"net/http"
	"time"

	"salesledger/internal/ledger"
	"salesledger/internal/log"
	"salesledger/internal/services"
)

func (s *Server) handleSalesData(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	q, err := ParseSalesQuery(r.URL.Query(), s.querier.DefaultCurrency())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.querier.Query(ctx, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(resp).Write(w)
}

type reloadResponse struct {
	Status          string    `json:"status"`
	SnapshotVersion uint64    `json:"snapshot_version"`
	Records         int       `json:"records"`
	LoadedAt        time.Time `json:"loaded_at"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	snap, err := s.reloader.Reload(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Ledger reload failed",
			log.FieldError, err,
			log.FieldOperation, log.OpReload)
		InternalServerError("ledger reload failed").Write(w)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Ledger reloaded",
		log.FieldSnapshotVer, snap.Version(),
		log.FieldRecordsIn, snap.Len())
	NewJSONResponse().JSON(reloadResponse{
		Status:          "reloaded",
		SnapshotVersion: snap.Version(),
		Records:         snap.Len(),
		LoadedAt:        snap.LoadedAt().UTC(),
	}).Write(w)
}

// writeError maps query errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	switch {
	case services.IsClientError(err):
		logger.InfoContext(ctx, "Rejected sales query",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldQuery, r.URL.RawQuery)
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, ledger.ErrNotLoaded):
		logger.WarnContext(ctx, "Sales query before ledger load", log.FieldError, err.Error())
		ServiceUnavailableError("ledger not loaded").Write(w)
	default:
		logger.ErrorContext(ctx, "Sales query failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeInternal)
		InternalServerError("internal server error").Write(w)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil || !s.reloader.Ready() {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
