package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wangyu-dev/medgraph"
	"github.com/wangyu-dev/medgraph/schema"
)

type handler struct {
	engine medgraph.Engine
}

func newHandler(e medgraph.Engine) *handler {
	return &handler{engine: e}
}

// POST /ingest
// Accepts a multipart file upload, a JSON body with a file path, or a JSON
// body with free texts for LLM extraction.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	// Try multipart upload first
	if err := r.ParseMultipartForm(50 << 20); err == nil { // 50MB max
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()

			// Sanitise filename to prevent path traversal.
			safeName := filepath.Base(header.Filename)

			tmpPath := filepath.Join(os.TempDir(), safeName)
			dst, err := os.Create(tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to process file")
				slog.Error("creating temp file", "error", err)
				return
			}
			if _, err := io.Copy(dst, file); err != nil {
				dst.Close()
				writeError(w, http.StatusInternalServerError, "failed to save file")
				slog.Error("saving uploaded file", "error", err)
				return
			}
			dst.Close()
			defer os.Remove(tmpPath)

			result, err := h.engine.IngestFile(ctx, tmpPath)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "ingestion failed")
				slog.Error("ingest error", "file", safeName, "error", err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"filename": safeName,
				"added":    result.Added,
				"skipped":  result.Skipped,
			})
			return
		}
	}

	// JSON body with path or texts
	var req struct {
		Path  string   `json:"path,omitempty"`
		Texts []string `json:"texts,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path' or 'texts'")
		return
	}

	var (
		result medgraph.IngestResult
		err    error
	)
	switch {
	case len(req.Texts) > 0:
		result, err = h.engine.IngestTexts(ctx, req.Texts)
	case req.Path != "":
		absPath, pathErr := filepath.Abs(req.Path)
		if pathErr != nil {
			writeError(w, http.StatusBadRequest, "invalid path")
			return
		}
		info, statErr := os.Stat(absPath)
		if statErr != nil || info.IsDir() {
			writeError(w, http.StatusBadRequest, "path must be an existing file")
			return
		}
		result, err = h.engine.IngestFile(ctx, absPath)
	default:
		writeError(w, http.StatusBadRequest, "path or texts is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		slog.Error("ingest error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"added":   result.Added,
		"skipped": result.Skipped,
	})
}

// POST /retrieve
// Accepts either a list of canonical symptom names or a free-text patient
// description.
func (h *handler) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Symptoms []string `json:"symptoms,omitempty"`
		Text     string   `json:"text,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if len(req.Symptoms) > 0 {
		writeJSON(w, http.StatusOK, h.engine.Retrieve(req.Symptoms))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "symptoms or text is required")
		return
	}

	bundle, err := h.engine.RetrieveFromText(ctx, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "retrieval failed")
		slog.Error("retrieve error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// POST /seed
func (h *handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	added := h.engine.Seed()
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// POST /snapshot/save
func (h *handler) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SaveSnapshot(); err != nil {
		writeError(w, http.StatusInternalServerError, "snapshot save failed")
		slog.Error("snapshot save error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// POST /snapshot/load
func (h *handler) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.LoadSnapshot(); err != nil {
		writeError(w, http.StatusInternalServerError, "snapshot load failed")
		slog.Error("snapshot load error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

// POST /reindex
func (h *handler) handleReindex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := h.engine.RebuildResolverIndex(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "reindex failed")
		slog.Error("reindex error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reindexed"})
}

// GET /entities?type=Disease
func (h *handler) handleEntities(w http.ResponseWriter, r *http.Request) {
	typeFilter := schema.EntityType(r.URL.Query().Get("type"))
	if typeFilter != "" && !schema.ValidEntityType(typeFilter) {
		writeError(w, http.StatusBadRequest, "unknown entity type")
		return
	}

	names := h.engine.Entities(typeFilter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": names,
		"count":    len(names),
	})
}

// GET /viz?highlight=Influenza&highlight=Fever
func (h *handler) handleViz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Visualization(r.URL.Query()["highlight"]))
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
