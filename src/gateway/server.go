package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/monitoring"
	"github.com/rif-marketplace/placements/src/utils/task"
)

// Rest API server, exposes the market operations and monitor counters
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	engine  *placements.Engine
	monitor monitoring.Monitor

	// Short lived read cache for placement queries
	placementCache *cache.Cache
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "server").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	gin.SetMode(gin.ReleaseMode)
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:        self.Config.Gateway.RESTListenAddress,
		Handler:     self.Router,
		ReadTimeout: self.Config.Gateway.ServerRequestTimeout,
	}

	self.placementCache = cache.New(config.Gateway.PlacementCacheTTL, 2*config.Gateway.PlacementCacheTTL)

	return
}

func (self *Server) WithEngine(engine *placements.Engine) *Server {
	self.engine = engine
	return self
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) run() (err error) {
	registry := prometheus.NewRegistry()
	err = registry.Register(self.monitor.GetPrometheusCollector())
	if err != nil {
		return
	}

	self.Router.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.monitor.OnGet)
		v1.GET("state", self.onGetState)
		v1.POST("initialize", self.onInitialize)

		v1.GET("placements", self.onListPlacements)
		v1.GET("placements/:tokenId", self.onGetPlacement)
		v1.POST("placements", self.onPlace)
		v1.DELETE("placements/:tokenId", self.onUnplace)

		v1.POST("buy", self.onBuy)
		v1.POST("token-fallback", self.onTokenFallback)
		v1.POST("tokens-received", self.onTokensReceived)

		v1.GET("whitelist/:paymentToken", self.onGetWhitelisted)
		v1.POST("whitelist", self.onSetWhitelisted)
		v1.POST("gas-payments", self.onAllowGasPayments)
		v1.POST("pause", self.onSetPaused)
		v1.POST("ownership", self.onTransferOwnership)
	}

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
