package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Runbinlin/jbn-daily/internal/catalog"
	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/game"
	"github.com/Runbinlin/jbn-daily/internal/httpmw"
	"github.com/Runbinlin/jbn-daily/internal/rng"
)

type HandlerOptions struct {
	Catalog *catalog.Catalog
	Balance config.Balance
	NewRNG  func() rng.Source
	Clock   game.Clock
	Log     zerolog.Logger
}

// NewHandler assembles the API surface with request-id, access-log and
// panic-recovery middleware around it.
func NewHandler(opts HandlerOptions) (http.Handler, error) {
	if opts.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if opts.NewRNG == nil {
		opts.NewRNG = func() rng.Source { return rng.New() }
	}
	if opts.Clock == nil {
		opts.Clock = game.RealClock{}
	}
	opts.Balance.ApplyDefaults()

	app := &App{
		Catalog: opts.Catalog,
		Balance: opts.Balance,
		NewRNG:  opts.NewRNG,
		Clock:   opts.Clock,
		Log:     opts.Log,
	}

	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	RegisterRoutes(mux, rr, app)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "jbn-daily",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.Catalog.Validate(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "catalog unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "jbn-daily",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Log),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Log),
	), nil
}
