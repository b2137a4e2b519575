package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"bizfinance/internal/api"
	"bizfinance/internal/budget"
	"bizfinance/internal/cache"
	"bizfinance/internal/company"
	"bizfinance/internal/paymentplan"
	"bizfinance/internal/settings"
	"bizfinance/pkg/config"
)

type Dependencies struct {
	Cfg   config.Config
	DB    *pgxpool.Pool
	Log   logrus.FieldLogger
	Cache cache.Cache
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(deps.Log))
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Company-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	companies := company.NewRepository(deps.DB)
	settingsRepo := settings.NewRepository(deps.DB)

	planHandlers := paymentplan.Handlers{
		Cache:           deps.Cache,
		CacheTTL:        deps.Cfg.PlanCacheTTL,
		MaxInstallments: deps.Cfg.MaxInstallments,
		Log:             deps.Log,
	}
	settingsHandlers := settings.Handlers{
		Repo:            settingsRepo,
		MaxInstallments: deps.Cfg.MaxInstallments,
		Log:             deps.Log,
	}
	budgetHandlers := budget.Handlers{
		DB:              deps.DB,
		Budgets:         budget.NewRepository(deps.DB),
		Defaults:        settingsRepo,
		MaxInstallments: deps.Cfg.MaxInstallments,
		Log:             deps.Log,
	}

	r.Route("/v1", func(r chi.Router) {
		// Production: bearer JWT carrying company_id.
		// Dev: falls back to X-Company-ID if Authorization is missing.
		r.Use(api.CompanyAuth(deps.Cfg, companies, deps.Log))
		r.Use(api.RequireActiveSubscription)

		// Live editor: stateless calculator
		r.Post("/payment-plans/compute", planHandlers.Compute)
		r.Post("/payment-plans/edit", planHandlers.Edit)
		r.Post("/payment-plans/mode", planHandlers.SwitchMode)

		r.Get("/settings/payment", settingsHandlers.GetPayment)
		r.Put("/settings/payment", settingsHandlers.PutPayment)

		r.Get("/orcamentos", budgetHandlers.List)
		r.Post("/orcamentos", budgetHandlers.Create)
		r.Get("/orcamentos/{id}", budgetHandlers.Get)
		r.Put("/orcamentos/{id}", budgetHandlers.Update)
		r.Delete("/orcamentos/{id}", budgetHandlers.Delete)
		r.Patch("/orcamentos/{id}/status", budgetHandlers.PatchStatus)
		r.Post("/orcamentos/{id}/parcelas/{index}", budgetHandlers.EditInstallment)
		r.Get("/orcamentos/{id}/eventos", budgetHandlers.Events)
	})

	return r
}
