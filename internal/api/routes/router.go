package routes

import (
	"net/http"

	"github.com/clinova/medassist/internal/api/handlers"
	"github.com/clinova/medassist/internal/api/middleware"
	"github.com/clinova/medassist/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	stageHandler        *handlers.StageHandler
	taskHandler         *handlers.TaskHandler
	consultationHandler *handlers.ConsultationHandler
	patientHandler      *handlers.PatientHandler
	articleHandler      *handlers.ArticleHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	stageHandler *handlers.StageHandler,
	taskHandler *handlers.TaskHandler,
	consultationHandler *handlers.ConsultationHandler,
	patientHandler *handlers.PatientHandler,
	articleHandler *handlers.ArticleHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		stageHandler:        stageHandler,
		taskHandler:         taskHandler,
		consultationHandler: consultationHandler,
		patientHandler:      patientHandler,
		articleHandler:      articleHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Stage dispatch endpoints
	r.mux.HandleFunc("POST /api/stages/{kind}", r.stageHandler.DispatchStage)
	r.mux.HandleFunc("POST /api/stages/{kind}/sync", r.stageHandler.ExecuteStageSync)

	// Task status endpoint
	r.mux.HandleFunc("GET /api/tasks/{id}", r.taskHandler.GetTask)

	// Consultation pipeline endpoints
	r.mux.HandleFunc("POST /api/consultations", r.consultationHandler.CreateConsultation)
	r.mux.HandleFunc("GET /api/consultations/search", r.consultationHandler.SearchConsultations)
	r.mux.HandleFunc("GET /api/consultations/related", r.consultationHandler.RelatedConsultations)

	// Patient endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.CreatePatient)
	r.mux.HandleFunc("GET /api/patients/{key}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("GET /api/patients/{key}/history", r.consultationHandler.PatientHistory)

	// Literature and terminology endpoints
	if r.articleHandler != nil {
		r.mux.HandleFunc("GET /api/articles/{pmid}/abstract", r.articleHandler.GetAbstract)
		r.mux.HandleFunc("GET /api/conditions", r.articleHandler.SearchConditions)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
