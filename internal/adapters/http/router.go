package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/flyup/recruit-backend/internal/config"
	"github.com/flyup/recruit-backend/internal/core/ports"
	"github.com/flyup/recruit-backend/internal/observability/metrics"
)

const serviceName = "recruit-api"

type Router struct {
	offers   ports.OfferLedger
	profiles ports.ProfileService
	triage   ports.FilterTriage
	catalog  ports.CatalogService

	cfg     config.Config
	metrics *metrics.HTTPServerMetrics

	// fileHandler serves stored objects in local storage mode; nil when the
	// store issues its own URLs.
	fileHandler http.Handler
}

func NewRouter(
	offers ports.OfferLedger,
	profiles ports.ProfileService,
	triage ports.FilterTriage,
	catalog ports.CatalogService,
	cfg config.Config,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		offers:   offers,
		profiles: profiles,
		triage:   triage,
		catalog:  catalog,
		cfg:      cfg,
		metrics:  m,
	}
}

func (rt *Router) ServeFiles(handler http.Handler) {
	rt.fileHandler = handler
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/offers", rt.createOffer)
	mux.HandleFunc("GET /v1/offers/{email}", rt.getOffer)
	mux.HandleFunc("PATCH /v1/offers/{email}", rt.updateOffer)
	mux.HandleFunc("PATCH /v1/offers/{email}/{test}/submit", rt.submitTest)
	mux.HandleFunc("PATCH /v1/offers/{email}/{test}/dismiss", rt.dismissTest)

	mux.HandleFunc("POST /v1/personal-infos", rt.createProfile)
	mux.HandleFunc("GET /v1/personal-infos/{email}", rt.getProfile)
	mux.HandleFunc("PATCH /v1/personal-infos/{email}", rt.updateProfile)
	mux.HandleFunc("DELETE /v1/personal-infos/{email}/files/{field}", rt.deleteProfileDocument)

	mux.HandleFunc("GET /v1/filters", rt.listFilters)
	mux.HandleFunc("GET /v1/filters/export", rt.exportFilters)
	mux.HandleFunc("PATCH /v1/filters/{email}/done", rt.setFilterDone)
	mux.HandleFunc("DELETE /v1/filters/{email}", rt.dismissFilter)

	mux.HandleFunc("POST /v1/skill-tests", rt.createCatalogTest)
	mux.HandleFunc("GET /v1/skill-tests", rt.listCatalogTests)
	mux.HandleFunc("GET /v1/skill-tests/{name}", rt.getCatalogTest)
	mux.HandleFunc("DELETE /v1/skill-tests/{name}", rt.deleteCatalogTest)

	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if rt.fileHandler != nil {
		mux.Handle("GET /files/", http.StripPrefix("/files/", rt.fileHandler))
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	if rt.cfg.APIMaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func (rt *Router) recordUpload(kind string, size int64) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, kind, size)
	}
}

func (rt *Router) recordSubmission(err error) {
	if rt.metrics != nil {
		rt.metrics.RecordSubmission(serviceName, err)
	}
}
