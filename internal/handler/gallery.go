package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"HiCGallery/config"
	"HiCGallery/internal/manifest"
	"HiCGallery/internal/model"
	"HiCGallery/internal/service"
	"HiCGallery/internal/validator"
)

const maxValidateBody = 1 << 20

type ValidateRequest struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

type ValidateResponse struct {
	Case       string                `json:"case"`
	Passed     bool                  `json:"passed"`
	Violations []validator.Violation `json:"violations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrNotFound) {
		status = http.StatusNotFound
	}
	if status >= 500 {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()}, logger)
}

// withBaseURL prefixes image paths of a copy of c.
func withBaseURL(c model.Case, baseURL string) model.Case {
	if baseURL == "" {
		return c
	}
	c.CoverImage = baseURL + c.CoverImage
	entries := make([]model.Entry, len(c.Entries))
	for i, e := range c.Entries {
		entries[i] = entryWithBaseURL(e, baseURL)
	}
	c.Entries = entries
	return c
}

func entryWithBaseURL(e model.Entry, baseURL string) model.Entry {
	if baseURL == "" {
		return e
	}
	e.Src = baseURL + e.Src
	if e.Thumb != "" {
		e.Thumb = baseURL + e.Thumb
	}
	return e
}

// GetManifest serves the same document `gallery build` writes.
func GetManifest(s service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Manifest(r.Context())
		if err != nil {
			writeError(w, err, logger)
			return
		}
		data, err := manifest.Marshal(m)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(data); err != nil {
			logger.Warn("failed to write manifest", zap.Error(err))
		}
	}
}

func GetCategories(s service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := s.Categories(r.Context())
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cats, logger)
	}
}

func GetCasesByGroup(s service.GalleryService, cfg *config.Config, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		cases, err := s.CasesInGroup(r.Context(), vars["type"], vars["group"])
		if err != nil {
			writeError(w, err, logger)
			return
		}
		out := make([]model.Case, len(cases))
		for i, c := range cases {
			out[i] = withBaseURL(c, cfg.BaseURL)
		}
		writeJSON(w, http.StatusOK, out, logger)
	}
}

func GetEntryByNumber(s service.GalleryService, cfg *config.Config, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		e, err := s.EntryByNumber(r.Context(), vars["case"], vars["number"])
		if err != nil {
			writeError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, entryWithBaseURL(*e, cfg.BaseURL), logger)
	}
}

// ValidateCase runs the validator over a case name and file list, the same
// check a pull request gets.
func ValidateCase(s service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxValidateBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "error reading request body"}, logger)
			return
		}
		var req ValidateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "error decoding JSON: " + err.Error()}, logger)
			return
		}

		res := s.Validate(req.Name, req.Files)
		violations := res.Violations
		if violations == nil {
			violations = []validator.Violation{}
		}
		logger.Debug("validated case", zap.String("case", req.Name), zap.Bool("passed", res.Passed()))
		writeJSON(w, http.StatusOK, ValidateResponse{Case: res.Case, Passed: res.Passed(), Violations: violations}, logger)
	}
}
