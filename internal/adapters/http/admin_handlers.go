package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flyup/recruit-backend/internal/core/ports"
)

func (rt *Router) listFilters(w http.ResponseWriter, r *http.Request) {
	var done *bool
	if raw := r.URL.Query().Get("done"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "done must be a boolean"})
			return
		}
		done = &parsed
	}

	filters, err := rt.triage.List(r.Context(), done)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

func (rt *Router) setFilterDone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Done *bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Done == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"done\": bool}"})
		return
	}

	filter, err := rt.triage.SetDone(r.Context(), r.PathValue("email"), *req.Done)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filter)
}

func (rt *Router) dismissFilter(w http.ResponseWriter, r *http.Request) {
	if err := rt.triage.Dismiss(r.Context(), r.PathValue("email")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) exportFilters(w http.ResponseWriter, r *http.Request) {
	workbook, err := rt.triage.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filename := "filters-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(workbook)))
	_, _ = w.Write(workbook)
}

func (rt *Router) createCatalogTest(w http.ResponseWriter, r *http.Request) {
	if err := rt.parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	position := strings.TrimSpace(r.FormValue("position"))

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'pdf' is required"})
		return
	}
	defer file.Close()
	rt.recordUpload("catalog", header.Size)

	test, err := rt.catalog.Create(r.Context(), name, position, ports.Upload{Filename: header.Filename, Body: file})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, test)
}

func (rt *Router) listCatalogTests(w http.ResponseWriter, r *http.Request) {
	tests, err := rt.catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tests)
}

func (rt *Router) getCatalogTest(w http.ResponseWriter, r *http.Request) {
	test, err := rt.catalog.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (rt *Router) deleteCatalogTest(w http.ResponseWriter, r *http.Request) {
	if err := rt.catalog.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
