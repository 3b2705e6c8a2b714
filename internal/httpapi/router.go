package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router cmd/lendingd serves: health, metrics and
// read views are open; every /admin route (governance, pushed prices, ledger
// funding) sits behind auth middleware; the position and delegation routes
// sit behind rate-limit middleware only. Grounded on
// gateway/routes/router.go's route-group-with-middleware-stack shape.
func NewRouter(app *App, auth *Authenticator, limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(withRequestID)

	r.Get("/healthz", app.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/pools/info", app.getPool)
	r.Get("/positions/info", app.getPosition)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(auth.Middleware)
		admin.Post("/market-config", app.initializeMarketConfig)
		admin.Post("/pause", app.pauseProtocol)
		admin.Post("/unpause", app.unpauseProtocol)
		admin.Post("/withdraw-only", app.enableWithdrawOnlyMode)
		admin.Post("/pools", app.addAssetPool)
		admin.Post("/pools/update", app.updateAssetPool)
		admin.Post("/fees/collect", app.collectProtocolFees)
		admin.Post("/prices", app.setPrice)
		admin.Post("/ledger/credit", app.creditLedger)
	})

	r.Route("/positions", func(pos chi.Router) {
		pos.Use(limiter.Middleware)
		pos.Post("/deposit", app.deposit)
		pos.Post("/withdraw", app.withdraw)
		pos.Post("/borrow", app.borrow)
		pos.Post("/repay", app.repay)
		pos.Post("/liquidate", app.liquidate)
		pos.Post("/execute", app.executeOperations)
	})

	r.Route("/delegations", func(del chi.Router) {
		del.Use(limiter.Middleware)
		del.Post("/approve", app.approveDelegation)
		del.Post("/revoke", app.revokeDelegation)
		del.Post("/borrow", app.borrowDelegated)
	})

	return r
}
