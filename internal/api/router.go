package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/records"
	"github.com/bellhart/clinic-portal/internal/schedule"
	"github.com/bellhart/clinic-portal/internal/validation"
)

type RouterConfig struct {
	Service *schedule.Service
	Records *records.Service
	Rules   validation.RuleSet
	Checks  []Check
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", getScheduleHandler(cfg.Service))
		r.Route("/slots/{id}", func(r chi.Router) {
			r.Get("/", getSlotHandler(cfg.Service))
			r.Post("/book", bookSlotHandler(cfg.Service, cfg.Rules))
			r.Post("/cancel", cancelSlotHandler(cfg.Service))
			r.Post("/complete", completeSlotHandler(cfg.Service))
			r.Post("/reschedule", rescheduleSlotHandler(cfg.Service, cfg.Rules))
		})
	})

	r.Get("/appointments/upcoming", upcomingHandler(cfg.Service))
	r.Get("/records", listRecordsHandler(cfg.Records))
	r.Get("/validation-rules", validationRulesHandler(cfg.Rules))

	return r
}
