package main

import (
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/vatreview/src/config"
	"github.com/username/vatreview/src/database"
	"github.com/username/vatreview/src/handlers"
	"github.com/username/vatreview/src/logger"
	"github.com/username/vatreview/src/parsers/revenue"
	"github.com/username/vatreview/src/parsers/xero"
	"github.com/username/vatreview/src/processors"
	"github.com/username/vatreview/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("VAT review backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(config.Cfg.ReportCacheExpiry, 2*config.Cfg.ReportCacheExpiry)

	ledgerProcessor := processors.NewLedgerProcessor(config.Cfg.KnownVATRates)
	engine := processors.NewReconciliationEngine()
	drafter := processors.NewDisclosureDrafter(config.Cfg.DailyInterestRate)

	reviewService := services.NewReviewService(
		database.DB,
		xero.NewParser(),
		revenue.NewParser(),
		ledgerProcessor,
		engine,
		drafter,
		reportCache,
		services.ReviewConfig{
			UnpaidPurchaseThreshold: config.Cfg.UnpaidPurchaseThreshold,
			TotalMismatchTolerance:  config.Cfg.TotalMismatchTolerance,
			BadDebtAge:              time.Duration(config.Cfg.BadDebtAgeDays) * 24 * time.Hour,
			DefaultCadence:          config.Cfg.DefaultCadence,
			DefaultBasis:            config.Cfg.DefaultBasis,
		},
	)
	exportService := services.NewExportService()

	healthHandler := handlers.NewHealthHandler(database.DB)
	uploadHandler := handlers.NewUploadHandler(reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	exportHandler := handlers.NewExportHandler(reviewService, exportService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", healthHandler.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ledger", uploadHandler.HandleLedgerUpload)
		r.Post("/returns", uploadHandler.HandleReturnsUpload)
		r.Get("/periods", reviewHandler.HandlePeriodSummaries)
		r.Post("/review", reviewHandler.HandleRunReview)
		r.Get("/review/{runID}", reviewHandler.HandleGetReview)
		r.Get("/export/{runID}", exportHandler.HandleExport)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
