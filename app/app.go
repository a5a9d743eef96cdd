// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"noxa-api/config"
	"noxa-api/db"
	"noxa-api/handler"
	"noxa-api/logger"
	"noxa-api/realtime"
	"noxa-api/repository"
	"noxa-api/router"
	"noxa-api/service"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// App holds the wired layers of a running server.
type App struct {
	Config        config.Config
	DB            *sql.DB
	Store         repository.Store
	Router        http.Handler
	Hub           *realtime.Hub
	Tokens        *service.TokenService
	Auth          *service.AuthService
	Push          *service.PushService
	Notifications *service.NotificationService
}

// TestApp is an App backed by the in-memory store, for integration tests.
type TestApp = App

// New wires every layer. A nil database selects the in-memory store.
func New(cfg config.Config, database *sql.DB) (*App, error) {
	var store repository.Store
	if database != nil {
		store = repository.NewPrincipalRepository(database)
	} else {
		store = repository.NewMemoryStore()
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	// Layers for sessions and auth
	sessions := service.NewSessionService(store, tokens, cfg.JWT.SessionDigestKey)
	credentials := service.NewCredentialVerifier(cfg.Security.BcryptCost)
	authService := service.NewAuthService(store, sessions, credentials)

	// Layers for push
	webPush := service.WebPushConfig{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:    cfg.Push.VAPIDSubject,
		TTL:        cfg.Push.TTL,
		Timeout:    cfg.Push.SendTimeout,
	}
	var sender service.PushSender
	if webPush.Configured() {
		sender = service.NewWebPushSender(webPush)
	} else {
		logger.Log.Warn("VAPID keys are not configured, web push is disabled")
	}
	pushService := service.NewPushService(store, sender, service.PushOptions{
		PublicKey:   cfg.Push.VAPIDPublicKey,
		Configured:  cfg.PushConfigured(),
		SendTimeout: cfg.Push.SendTimeout,
		DeepLinkURL: cfg.Push.DeepLinkURL,
	})

	// Layers for realtime fanout
	hub := realtime.NewHub()
	gateway := realtime.NewGateway(hub, tokens, realtime.GatewayOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SendBuffer:     cfg.Realtime.SendBuffer,
		PingInterval:   cfg.Realtime.PingInterval,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
	})
	notifications := service.NewNotificationService(hub, pushService, service.NotificationOptions{
		Workers:         cfg.Notifications.Workers,
		QueueSize:       cfg.Notifications.QueueSize,
		DeliveryTimeout: cfg.Push.DeliveryTimeout,
	})

	r := router.NewRouter(router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Push:          handler.NewPushHandler(pushService),
		Notifications: handler.NewNotificationHandler(notifications),
		Realtime:      gateway,
		Verifier:      tokens,
	}, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthRateLimit:  cfg.Server.AuthRateLimit,
	})

	return &App{
		Config:        cfg,
		DB:            database,
		Store:         store,
		Router:        r,
		Hub:           hub,
		Tokens:        tokens,
		Auth:          authService,
		Push:          pushService,
		Notifications: notifications,
	}, nil
}

// NewTestApp builds a started App on the in-memory store.
func NewTestApp(cfg config.Config) (*TestApp, error) {
	a, err := New(cfg, nil)
	if err != nil {
		return nil, err
	}
	a.Notifications.Start()
	return a, nil
}

// Shutdown closes sockets first so nothing new is emitted, then drains the notification queue.
func (a *App) Shutdown(ctx context.Context) error {
	a.Hub.CloseAll()
	return a.Notifications.Close(ctx)
}

// Run loads configuration from configPath and serves until SIGINT or SIGTERM.
func Run(configPath string) error {
	logger.Init()
	if err := config.LoadConfig(configPath); err != nil {
		return err
	}
	cfg := config.AppConfig
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	logger.Log.Info("Configuration loaded successfully")

	var database *sql.DB
	if cfg.Database.Driver == "postgres" {
		var err error
		database, err = db.Connect(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
	} else {
		logger.Log.Warn("Using the in-memory store, data is lost on restart")
	}

	a, err := New(cfg, database)
	if err != nil {
		return err
	}
	a.Notifications.Start()

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return err
	}

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	if err := a.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Warn("Notification queue did not drain before the deadline")
	}

	logger.Log.Info("Server exited properly")
	return nil
}
