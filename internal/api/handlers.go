package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/buildinfo"
	"github.com/crewledger/crewledger/internal/importer"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/pipeline"
	"github.com/crewledger/crewledger/internal/reconcile"
)

type errorResponse struct {
	Error string `json:"error"`
}

type mismatchResponse struct {
	Error          string           `json:"error"`
	Reconciliation reconcile.Result `json:"reconciliation"`
}

type validationResponse struct {
	Error      string                      `json:"error"`
	Violations []reconcile.ValidationError `json:"violations"`
}

type commitRequest struct {
	Override        bool                     `json:"override"`
	EntityOverrides pipeline.EntityOverrides `json:"entityOverrides"`
}

type mappingRequest struct {
	AccountPath string `json:"accountPath"`
	Category    string `json:"category"`
}

type batchDetail struct {
	Batch    model.ImportBatch    `json:"batch"`
	Rows     []model.CommittedRow `json:"rows"`
	MatchLog []matchlog.Entry     `json:"matchLog"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "status", status, "error", msg)
	}
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeDomainError maps pipeline and batch errors onto status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *reconcile.MismatchError
	var invalid *pipeline.ValidationFailedError
	switch {
	case errors.As(err, &mismatch):
		writeJSON(w, r, http.StatusConflict, mismatchResponse{Error: err.Error(), Reconciliation: mismatch.Result})
	case errors.As(err, &invalid):
		writeJSON(w, r, http.StatusUnprocessableEntity, validationResponse{Error: err.Error(), Violations: invalid.Errors})
	case errors.Is(err, batch.ErrBatchNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrInvalidOverride), errors.Is(err, pipeline.ErrInvalidMapping),
		errors.Is(err, importer.ErrMissingColumn), errors.Is(err, batch.ErrInvalidBatchID):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		log.Warn("parsing upload", "error", err, "limit", s.opts.MaxUploadBytes)
		writeError(w, r, http.StatusBadRequest, "invalid upload or file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing form field \"file\"")
		return
	}
	defer file.Close()

	rd, err := s.registry.ReaderFor(header.Filename)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	records, err := rd.Read(file)
	if err != nil {
		log.Warn("reading upload", "file", header.Filename, "error", err)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.engine.Preview(r.Context(), pipeline.Source{FileName: header.Filename, Records: records})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.previews.SetDefault(p.ID, p)
	writeJSON(w, r, http.StatusCreated, p)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) (*pipeline.Preview, bool) {
	id := chi.URLParam(r, "previewID")
	v, ok := s.previews.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "preview "+id+" not found or expired")
		return nil, false
	}
	return v.(*pipeline.Preview), true
}

func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.preview(w, r); ok {
		writeJSON(w, r, http.StatusOK, p)
	}
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid commit body: "+err.Error())
		return
	}

	// One commit per preview: a second request waits, then finds it gone.
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	p, ok := s.preview(w, r)
	if !ok {
		return
	}
	sum, err := s.engine.Commit(r.Context(), p, pipeline.CommitOptions{
		OverrideReconciliation: req.Override,
		EntityOverrides:        req.EntityOverrides,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.previews.Delete(p.ID)
	writeJSON(w, r, http.StatusCreated, sum)
}

func (s *Server) handleResolveCategory(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid mapping body: "+err.Error())
		return
	}
	p, ok := s.preview(w, r)
	if !ok {
		return
	}
	next, err := s.engine.ResolveCategory(r.Context(), p, req.AccountPath, req.Category)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.previews.Set(next.ID, next, cache.DefaultExpiration)
	writeJSON(w, r, http.StatusOK, next)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.engine.Batches().List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if batches == nil {
		batches = []model.ImportBatch{}
	}
	writeJSON(w, r, http.StatusOK, batches)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "batchID")
	svc := s.engine.Batches()

	b, err := svc.Get(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rows, err := svc.Rows(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	log, err := svc.MatchLog(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rows == nil {
		rows = []model.CommittedRow{}
	}
	if log == nil {
		log = []matchlog.Entry{}
	}
	writeJSON(w, r, http.StatusOK, batchDetail{Batch: b, Rows: rows, MatchLog: log})
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Rollback(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
