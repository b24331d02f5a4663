package httpadapter

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

func (rt *Router) createOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string   `json:"email"`
		DueTime    string   `json:"dueTime"`
		SkillTests []string `json:"skillTests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	dueTime, err := parseDueTime(req.DueTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	offer, err := rt.offers.Create(r.Context(), req.Email, dueTime, req.SkillTests)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (rt *Router) getOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := rt.offers.Get(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// updateOffer accepts a multipart form: an optional dueTime value, a
// skillTests patch list and files keyed by test name.
func (rt *Router) updateOffer(w http.ResponseWriter, r *http.Request) {
	if err := rt.parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var dueTime *time.Time
	if raw := r.FormValue("dueTime"); raw != "" {
		parsed, err := parseDueTime(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		dueTime = &parsed
	}

	patches, err := parseSkillTestPatches(r.FormValue("skillTests"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	uploads := map[string][]ports.Upload{}
	var open []multipart.File
	defer closeAll(&open)
	if r.MultipartForm != nil {
		for test, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload " + header.Filename})
					return
				}
				open = append(open, f)
				uploads[test] = append(uploads[test], ports.Upload{Filename: header.Filename, Body: f})
				rt.recordUpload("offer", header.Size)
			}
		}
	}

	offer, err := rt.offers.ApplyUpdates(r.Context(), r.PathValue("email"), dueTime, patches, uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// submitTest accepts every uploaded file regardless of form field name plus
// an optional keepFiles JSON list.
func (rt *Router) submitTest(w http.ResponseWriter, r *http.Request) {
	if err := rt.parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	keepFiles, err := parseKeepFiles(r.FormValue("keepFiles"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var uploads []ports.Upload
	var open []multipart.File
	defer closeAll(&open)
	if r.MultipartForm != nil {
		for _, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload " + header.Filename})
					return
				}
				open = append(open, f)
				uploads = append(uploads, ports.Upload{Filename: header.Filename, Body: f})
				rt.recordUpload("submission", header.Size)
			}
		}
	}

	offer, allSubmitted, err := rt.offers.SubmitTest(r.Context(), r.PathValue("email"), r.PathValue("test"), keepFiles, uploads)
	rt.recordSubmission(err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"offer":        offer,
		"allSubmitted": allSubmitted,
	})
}

func (rt *Router) dismissTest(w http.ResponseWriter, r *http.Request) {
	offer, err := rt.offers.DismissTest(r.Context(), r.PathValue("email"), r.PathValue("test"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (rt *Router) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	maxBytes := rt.cfg.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// parseSkillTestPatches tolerates both a JSON array and a JSON-encoded
// string holding that array, which is how browser form clients send it.
func parseSkillTestPatches(raw string) ([]domain.SkillTestPatch, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(raw), &unquoted); err != nil {
			return nil, fmt.Errorf("invalid skillTests value")
		}
		raw = unquoted
	}
	var patches []domain.SkillTestPatch
	if err := json.Unmarshal([]byte(raw), &patches); err != nil {
		return nil, fmt.Errorf("invalid skillTests value")
	}
	return patches, nil
}

func parseKeepFiles(raw string) (*[]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var keep []string
	if err := json.Unmarshal([]byte(raw), &keep); err != nil {
		return nil, fmt.Errorf("invalid keepFiles value")
	}
	return &keep, nil
}

func parseDueTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("dueTime is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("dueTime must be RFC3339")
	}
	return t, nil
}

func closeAll(files *[]multipart.File) {
	for _, f := range *files {
		_ = f.Close()
	}
}
