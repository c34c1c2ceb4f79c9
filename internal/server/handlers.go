package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/history"
)

// ErrorBody is the error payload of every non-2xx JSON response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	s.log.Warn("http error",
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", msg),
		zap.String("path", r.URL.Path),
	)
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: msg}})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.UploadMaxBytes {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
			return
		}
		s.writeError(w, r, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !dataset.Supported(name) {
		s.writeError(w, r, http.StatusUnsupportedMediaType, "unsupported_format", "unsupported file format: "+filepath.Ext(name))
		return
	}

	tmp := filepath.Join(s.cfg.TempDir, "datalens-"+uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	if err := saveUpload(tmp, file); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, "internal", "could not store upload")
		return
	}
	defer os.Remove(tmp)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	rep, err := s.newRunner().RunContext(ctx, tmp)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, r, http.StatusGatewayTimeout, "timeout", "analysis did not finish in time")
			return
		}
		s.writeError(w, r, http.StatusServiceUnavailable, "cancelled", err.Error())
		return
	}
	if rep.FileInfo != nil {
		rep.FileInfo.Path = name
	}
	if !rep.Success {
		// Callers never see the server-side temp path.
		rep.Error = strings.ReplaceAll(rep.Error, tmp, name)
		writeJSON(w, http.StatusUnprocessableEntity, rep)
		return
	}

	entry, err := s.store.Save(name, rep)
	if err != nil {
		s.log.Error("save report", zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal", "could not save report")
		return
	}
	w.Header().Set("Location", "/api/reports/"+entry.ID)
	writeJSON(w, http.StatusCreated, entry)
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "internal", "could not list reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": list})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, entry)
	case "markdown", "html":
		body, err := entry.Report.Render(format)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		ct := "text/markdown; charset=utf-8"
		if format == "html" {
			ct = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		s.writeError(w, r, http.StatusBadRequest, "validation_error", "unsupported format: "+format)
	}
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "not_found", err.Error())
		return
	}
	s.writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
}
