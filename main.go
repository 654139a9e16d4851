package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"datagen/application/generate/handler"
	"datagen/application/generate/service"
	"datagen/application/health"
	"datagen/application/journal"
	"datagen/common"
	"datagen/internal/admission"
	"datagen/internal/generator"
	"datagen/internal/metrics"
	"datagen/internal/stream"
	"datagen/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, envLoaded, err := common.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	z := NewLogger(cfg.GinMode)
	defer z.Sync()

	if !envLoaded {
		z.Info("No .env file found, using environment variables")
	}

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemoryLimitMB > 0 {
		debug.SetMemoryLimit(cfg.MemoryLimitMB * 1024 * 1024)
	}
	z.Info("Runtime configured",
		zap.Int("gomaxprocs", runtime.GOMAXPROCS(0)),
		zap.Int64("memoryLimitMB", cfg.MemoryLimitMB),
	)

	journalDB, err := journal.Open(cfg.JournalDriver, cfg.JournalDSN)
	if err != nil {
		z.Fatal("Failed to open generation journal", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		z.Fatal("Failed to register metrics", zap.Error(err))
	}

	r := SetupRouter(Dependencies{
		Config:   cfg,
		Logger:   z,
		Pools:    generator.NewPools(time.Now(), nil),
		Journal:  journalDB,
		Metrics:  m,
		Registry: reg,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 55 * time.Second,
		// Streamed documents may take far longer than any fixed write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go monitorResources(ctx, z, cfg.MonitorInterval)

	go func() {
		z.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			z.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	z.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		z.Warn("Server shutdown incomplete", zap.Error(err))
	}
}

func NewLogger(mode string) *zap.Logger {
	var zapLogger *zap.Logger
	var err error

	if mode == gin.DebugMode {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}

	if err != nil {
		panic(err)
	}

	return zapLogger
}

func monitorResources(ctx context.Context, z *zap.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			z.Info("Resource Monitor",
				zap.Uint64("alloc_mb", m.Alloc/(1024*1024)),
				zap.Uint64("sys_mb", m.Sys/(1024*1024)),
				zap.Uint32("gc_count", m.NumGC),
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.Int("cpu_cores", runtime.GOMAXPROCS(0)),
				zap.Int("num_cpu", runtime.NumCPU()),
			)
		case <-ctx.Done():
			return
		}
	}
}

// Dependencies are the process-wide collaborators the router is built from.
type Dependencies struct {
	Config   common.Config
	Logger   *zap.Logger
	Pools    *generator.Pools
	Journal  *gorm.DB
	Metrics  *metrics.Collectors
	Registry *prometheus.Registry
}

func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(deps.Config.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestInit())
	r.Use(middleware.ResponseInit(deps.Logger))

	controller := admission.NewController(deps.Metrics)

	var journalRepo *journal.Repository
	if deps.Journal != nil {
		journalRepo = journal.NewRepository(deps.Journal)
	}
	journalSvc := journal.NewService(journalRepo, deps.Logger)
	journalHandler := journal.NewHandler(journalSvc)

	healthSvc := health.NewService(health.NewRepository(deps.Journal), controller)
	healthHandler := health.NewHandler(healthSvc)

	streamConfig := stream.DefaultChunkConfig()
	streamConfig.BatchKB = deps.Config.StreamBatchKB
	streamConfig.ChunkThreshold = deps.Config.StreamChunkBytes
	streamConfig.Pause = deps.Config.StreamPause

	generateSvc := service.NewService(
		generator.NewBuilder(deps.Pools),
		controller,
		journalSvc,
		deps.Metrics,
		deps.Logger,
		service.Options{Stream: streamConfig, Timeout: deps.Config.GenerationTimeout},
	)
	generateHandler := handler.NewHandler(generateSvc)

	root := r.Group("")
	healthHandler.RegisterRoutes(root)
	if deps.Registry != nil {
		root.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	generateHandler.RegisterRoutes(api)
	journalHandler.RegisterRoutes(api)

	return r
}
