//	@title			Summora Hotel API
//	@version		1.0
//	@description	Room catalog, language switching and room photo management for the Summora boutique hotel site.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/summora/hotel/internal/auth"
	"github.com/summora/hotel/internal/config"
	"github.com/summora/hotel/internal/db"
	"github.com/summora/hotel/internal/locale"
	appMiddleware "github.com/summora/hotel/internal/middleware"
	"github.com/summora/hotel/internal/photo"
	"github.com/summora/hotel/internal/room"
	"github.com/summora/hotel/internal/storage"

	_ "github.com/summora/hotel/docs/swagger"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	objects, err := storage.NewMinioStorage(
		ctx,
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StoragePublicBase,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	validate := validator.New()

	// Wire dependencies: repository → service → handler
	roomRepo := room.NewRepository(pool)
	photoRepo := photo.NewRepository(pool)

	photoMgr := photo.NewManager(photoRepo, roomRepo, objects, photo.Options{
		ServiceURL: cfg.ServiceURL,
		Bucket:     cfg.StorageBucket,
		StrictCap:  cfg.StrictPhotoCap(),
	})
	photoHandler := photo.NewHandler(photoMgr, validate)

	roomSvc := room.NewService(roomRepo, photoMgr, validate)
	roomHandler := room.NewHandler(roomSvc)

	authSvc := auth.NewService(auth.Credentials{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		JWTSecret:    cfg.JWTSecret,
	})
	authHandler := auth.NewHandler(authSvc, validate)

	localeHandler := locale.NewHandler(validate)

	sweeper, err := photo.NewSweeper(photoMgr, cfg.SweepSchedule, cfg.SweepGrace)
	if err != nil {
		log.Fatalf("upload sweeper init failed: %v", err)
	}
	sweeper.Start()

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI, available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.Locale)

		r.Post("/auth/login", authHandler.Login)

		r.Get("/locale", localeHandler.GetLanguage)
		r.Put("/locale", localeHandler.SetLanguage)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", roomHandler.List)
			r.Get("/{roomID}", roomHandler.Get)
			r.Get("/{roomID}/photos", photoHandler.List)
			r.Get("/{roomID}/photos/featured", photoHandler.Featured)
		})

		// Protected admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))

			r.Get("/rooms", roomHandler.AdminList)
			r.Post("/rooms", roomHandler.Create)
			r.Patch("/rooms/{roomID}", roomHandler.Update)
			r.Delete("/rooms/{roomID}", roomHandler.Delete)
			r.Post("/rooms/{roomID}/photos", photoHandler.UploadGallery)
			r.Post("/rooms/{roomID}/photos/featured", photoHandler.UploadFeatured)

			r.Get("/photos/stats", photoHandler.Stats)
			r.Delete("/photos/{photoID}", photoHandler.Delete)
			r.Patch("/photos/{photoID}/order", photoHandler.UpdateOrder)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		// Batch uploads can carry up to 100MB, so body reads get more room.
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, photo cap=%s)", cfg.Port, cfg.AppEnv, cfg.PhotoCapMode)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	sweeper.Stop(shutdownCtx)

	log.Println("server stopped")
}
