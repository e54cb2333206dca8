package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to disk.
const multipartMemory = 32 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        Name,
		"version":     Version,
		"description": Description,
		"uptime":      time.Since(startedAt).Round(time.Second).String(),
		"endpoints": map[string]string{
			"/analyze/{media_type}": "POST - Analyze media file",
			"/usage":                "GET - Get token usage statistics",
			"/usage/report":         "GET - Get token usage report",
			"/health":               "GET - Service health",
		},
	})
}

// POST /analyze/{media_type}
// Multipart form with a single "file" field.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	mediaType := chi.URLParam(r, "media_type")
	log := loggerFrom(r.Context(), s.log).WithField("media_type", mediaType)

	if _, ok := models.MediaType(mediaType).MIMEType(); !ok {
		// The analyzer owns the rejection message; no file is staged.
		result := s.analyzer.AnalyzeMedia(r.Context(), "", mediaType)
		writeJSON(w, statusFor(result), result)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	tempPath, err := s.stageUpload(file, header.Filename)
	if err != nil {
		log.WithError(err).Error("Failed to stage upload")
		writeError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warn("Failed to remove temp file")
		}
	}()

	start := time.Now()
	result := s.analyzer.AnalyzeMedia(r.Context(), tempPath, mediaType)
	duration := time.Since(start)

	if s.monitor != nil {
		s.monitor.RecordAnalysis(result, duration)
	}
	log.WithFields(logrus.Fields{
		"filename": header.Filename,
		"size":     header.Size,
		"failure":  result.Failure,
		"duration": duration,
	}).Info("Analysis finished")

	writeJSON(w, statusFor(result), result)
}

// stageUpload copies the uploaded file to the temp dir, keeping the original
// base name so its extension survives validation.
func (s *Server) stageUpload(src io.Reader, filename string) (string, error) {
	dir := s.cfg.Upload.TempDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("temp_%s_%s", uuid.NewString(), filepath.Base(filename)))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, nil
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.UsageStats())
}

func (s *Server) handleUsageReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, s.reporter.GenerateReport())
}
