package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/openchannel/internal/log"
	"github.com/chrissnell/openchannel/internal/storage"
	"github.com/chrissnell/openchannel/pkg/config"
	"github.com/chrissnell/openchannel/pkg/responseformat"
	"github.com/chrissnell/openchannel/pkg/solver"
)

const healthInterval = 15 * time.Second

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	batchConfig  config.BatchData
	Server       http.Server
	solver       *solver.Solver
	store        storage.Store
	health       *storage.HealthManager
	formatter    *responseformat.Formatter
	limiter      *IPRateLimiter
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. store may be nil, in
// which case the solution history endpoints answer 404.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, s *solver.Solver, store storage.Store, logger *zap.SugaredLogger) (*Controller, error) {
	if s == nil {
		return nil, fmt.Errorf("REST server needs a solver")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	sc := cfg.Server
	if sc.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}
	if sc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		batchConfig:  cfg.Batch,
		solver:       s,
		store:        store,
		health:       storage.NewHealthManager(),
		formatter:    responseformat.NewFormatter(sc.EnableCORS),
		logger:       logger,
	}
	if sc.RateLimit > 0 {
		ctrl.limiter = NewIPRateLimiter(sc.RateLimit, sc.RateBurst)
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	if c.store != nil {
		c.health.StartHealthMonitor(c.ctx, c.store, healthInterval, c.logger)
	}

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the router, for serving without a listener.
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.loggingMiddleware)
	if c.limiter != nil {
		router.Use(c.limiter.LimitMiddleware)
	}
	router.Use(c.bodyLimitMiddleware)
	post := []string{http.MethodPost}
	if c.serverConfig.EnableCORS {
		router.Use(corsMiddleware)
		post = append(post, http.MethodOptions)
	}

	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/problems", c.handlers.ListProblems).Methods(http.MethodGet)
	api.HandleFunc("/solve/{problem}", c.handlers.Solve).Methods(post...)
	api.HandleFunc("/batch", c.handlers.SolveBatch).Methods(post...)
	api.HandleFunc("/solutions", c.handlers.ListSolutions).Methods(http.MethodGet)
	api.HandleFunc("/solutions/{id}", c.handlers.GetSolution).Methods(http.MethodGet)
	api.HandleFunc("/solutions/{id}/report.pdf", c.handlers.GetSolutionReport).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)

	return router
}
