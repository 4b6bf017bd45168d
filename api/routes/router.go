package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/estatedesk-backend/api/controllers"
	"github.com/angelmondragon/estatedesk-backend/api/middleware"
	"github.com/angelmondragon/estatedesk-backend/internal/transfer"
	"github.com/angelmondragon/estatedesk-backend/pkg/config"
	"github.com/angelmondragon/estatedesk-backend/pkg/db/models"
	"github.com/angelmondragon/estatedesk-backend/pkg/logger"
	"github.com/angelmondragon/estatedesk-backend/pkg/redis"
)

type SaleService interface {
	Finalize(ctx context.Context, req transfer.Request) (transfer.Outcome, error)
}

type UnitFinder interface {
	FindByID(ctx context.Context, buildingID, unitID uuid.UUID) (*models.Unit, error)
}

type DepositPreviewer interface {
	Preview(ctx context.Context, unitID uuid.UUID) (*models.Reservation, error)
}

// Deps collects everything the router hands to handlers.
type Deps struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Storage     controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Sales       SaleService
	Units       UnitFinder
	Deposits    DepositPreviewer
}

func (d Deps) readiness() map[string]controllers.Pinger {
	out := map[string]controllers.Pinger{}
	if d.DB != nil {
		out["db"] = d.DB
	}
	if d.Redis != nil {
		out["redis"] = d.Redis
	}
	if d.Storage != nil {
		out["gcs"] = d.Storage
	}
	return out
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.readiness()))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireSaleRole(logg))

		r.With(
			chimw.RequestSize(cfg.Sale.MaxUploadBytes()),
			middleware.Idempotency(deps.Idempotency, cfg.Sale.IdempotencyTTL, logg),
		).Post("/buildings/{buildingId}/units/{unitId}/sale", controllers.FinalizeUnitSale(deps.Sales, cfg, logg))
		r.Get("/buildings/{buildingId}/units/{unitId}/sale/deposit", controllers.UnitSaleDeposit(deps.Units, deps.Deposits, logg))
	})

	return r
}
