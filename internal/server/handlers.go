package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"impactscan/internal/core"
	"impactscan/internal/logger"
	"impactscan/internal/persistence"
)

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %s", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read uploaded file: %s", err))
		return
	}
	defer file.Close()

	id := uuid.NewString()
	sourceKind := "text"
	if strings.EqualFold(extOf(header.Filename), ".pdf") {
		sourceKind = "pdf"
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("prepare storage: %s", err))
		return
	}

	destPath := filepath.Join(s.dataDir, id+extOf(header.Filename))
	dest, err := os.Create(destPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("store uploaded file: %s", err))
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("store uploaded file: %s", err))
		return
	}

	doc := core.TrackedDocument{
		ID:         id,
		Name:       header.Filename,
		SourceKind: sourceKind,
		UploadedAt: time.Now(),
		Status:     "pending",
	}

	if err := s.documents.Create(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("track document: %s", err))
		return
	}

	s.recordAudit(r, "document_uploaded", doc.ID, fmt.Sprintf("uploaded %q", doc.Name), map[string]any{
		"name":        doc.Name,
		"source_kind": doc.SourceKind,
	})

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list documents: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.documents.UpdateStatus(r.Context(), id, "discarded"); err != nil {
		status := http.StatusInternalServerError
		if err == persistence.ErrNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, fmt.Sprintf("discard document: %s", err))
		return
	}

	s.recordAudit(r, "document_discarded", id, "", nil)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	doc, err := s.documents.Get(r.Context(), docID)
	if err != nil {
		status := http.StatusInternalServerError
		if err == persistence.ErrNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, fmt.Sprintf("load document: %s", err))
		return
	}

	run := core.AnalysisRun{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		StartedAt:  time.Now(),
		Status:     "running",
	}
	if err := s.runs.Create(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("create run: %s", err))
		return
	}

	s.recordAudit(r, "run_started", run.ID, "", map[string]any{"document_id": doc.ID})

	ext := extOf(doc.Name)
	path := filepath.Join(s.dataDir, doc.ID+ext)
	pages, err := docLoaderFor(doc.Name).Load(path)
	if err != nil {
		s.failRun(r, run, fmt.Errorf("load document pages: %w", err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load document pages: %s", err))
		return
	}

	billImpacts, err := s.driver.Run(r.Context(), pages)
	if err != nil {
		s.failRun(r, run, fmt.Errorf("run pipeline: %w", err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("run pipeline: %s", err))
		return
	}

	run.FinishedAt = time.Now()
	run.BillImpacts = billImpacts
	run.Status = "succeeded"
	if err := s.runs.Update(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("persist run result: %s", err))
		return
	}

	if err := s.documents.UpdateStatus(r.Context(), doc.ID, "analyzed"); err != nil {
		logger.Warn("failed to update document status after run", "document_id", doc.ID, "error", err)
	}

	s.recordAudit(r, "run_completed", run.ID, "", map[string]any{
		"document_id":    doc.ID,
		"bills_impacted": len(billImpacts),
	})

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) failRun(r *http.Request, run core.AnalysisRun, err error) {
	run.FinishedAt = time.Now()
	run.Status = "failed"
	run.Error = err.Error()
	if updateErr := s.runs.Update(r.Context(), run); updateErr != nil {
		logger.Error("failed to persist run failure", updateErr, "run_id", run.ID)
	}
	s.recordAudit(r, "run_failed", run.ID, err.Error(), map[string]any{"document_id": run.DocumentID})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.runs.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if err == persistence.ErrNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, fmt.Sprintf("load run: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, run)
}
