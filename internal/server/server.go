package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	chargeabilitydomain "github.com/cazfleet/accounts/internal/chargeability/domain"
	"github.com/cazfleet/accounts/internal/config"
	vehicledomain "github.com/cazfleet/accounts/internal/vehicle/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    net.JoinHostPort("", cfg.HTTPPort),
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine           *gin.Engine
	log              *zap.Logger
	vehicleSvc       vehicledomain.Service
	chargeabilitySvc chargeabilitydomain.Service
	charging         *config.ChargingConfigHolder
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Log              *zap.Logger
	VehicleSvc       vehicledomain.Service
	ChargeabilitySvc chargeabilitydomain.Service
	Charging         *config.ChargingConfigHolder
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:           p.Gin,
		log:              p.Log.Named("http.server"),
		vehicleSvc:       p.VehicleSvc,
		chargeabilitySvc: p.ChargeabilitySvc,
		charging:         p.Charging,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	accounts := v1.Group("/accounts/:account_id")
	accounts.GET("/vehicles", s.ListVehicles)
	accounts.GET("/vehicles/sorted-page", s.ListVehiclesWithCursor)
	accounts.POST("/vehicles", s.CreateVehicle)
	accounts.GET("/vehicles/:vrn", s.GetVehicle)
	accounts.DELETE("/vehicles/:vrn", s.DeleteVehicle)
	accounts.POST("/charge-calculations", s.TriggerChargeCalculation)

	v1.POST("/charge-calculations/refresh", s.TriggerRefresh)
}
