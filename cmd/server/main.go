package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/scenerender/internal/asset"
	"github.com/inamate/scenerender/internal/auth"
	"github.com/inamate/scenerender/internal/config"
	"github.com/inamate/scenerender/internal/export"
	mw "github.com/inamate/scenerender/internal/middleware"
	"github.com/inamate/scenerender/internal/preview"
	"github.com/inamate/scenerender/internal/raster"
)

func main() {
	// hash-key prints the bcrypt hash to put in API_KEY_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-key" {
		hash, err := auth.HashAPIKey(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash api key:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	raster.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := asset.NewStore(cfg.AssetDir)
	if err != nil {
		slog.Error("open asset store", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(cfg.APIKeyHash, cfg.JWTSecret)
	if !authService.Enabled() {
		slog.Warn("JWT_SECRET is empty, authentication is disabled")
	}
	authHandler := auth.NewHandler(authService)

	assetHandler := asset.NewHandler(store)
	exportHandler := export.NewHandler(export.NewRenderer(store, cfg.MaxCanvasPixels, logger))

	hub := preview.NewHub(preview.Options{
		RefreshRate:      cfg.RefreshRate,
		DevicePixelRatio: cfg.DevicePixelRatio,
		MaxCanvasPixels:  cfg.MaxCanvasPixels,
		Assets:           store,
		Logger:           logger,
	})
	go hub.Run(ctx)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": hub.Count(),
		})
	}).Methods("GET")

	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	// Protected routes
	api := r.NewRoute().Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("POST", "OPTIONS")
	api.HandleFunc("/export/jpeg", exportHandler.ExportJPEG).Methods("POST", "OPTIONS")
	api.HandleFunc("/annotate/label", exportHandler.Label).Methods("POST", "OPTIONS")

	api.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	api.HandleFunc("/assets/{id}", assetHandler.Get).Methods("GET")
	api.HandleFunc("/assets/{id}", assetHandler.Delete).Methods("DELETE", "OPTIONS")

	// Browsers cannot set headers on websocket upgrades; the token rides in
	// the query string.
	api.HandleFunc("/ws/preview", hub.Handler(cfg.Origins()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so open previews are released.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "auth", authService.Enabled(), "refreshRate", cfg.RefreshRate)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
