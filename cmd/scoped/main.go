// cmd/scoped/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"scope-service/internal/api"
	"scope-service/internal/config"
	"scope-service/internal/logging"
	"scope-service/internal/registry"
)

// Application wires configuration, logging, the device manager and
// the HTTP/WebSocket server together, and owns graceful startup and
// shutdown.
//
// Grounded on device-service/cmd/server/main.go's Application struct
// and NewApplication/initializeX method chain, trimmed of
// database/repository/driver-registry initialization this driver has
// no analogue for: there is one device manager instead of a
// database-backed device fleet.
type Application struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	manager *api.Manager
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("failed to start application", zap.Error(err))
	}
}

// NewApplication loads configuration, builds the logger, the device
// manager and the HTTP server, in that order.
func NewApplication() (*Application, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{config: cfg, logger: logger}

	app.manager = api.NewManager(&cfg.Device, logger)

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

func (app *Application) initializeServer() error {
	router := api.NewRouter(app.config, app.logger, app.manager).SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.config.GetServerAddr()))
	return nil
}

// Start launches the HTTP server, the background USB-presence scan,
// then blocks until a shutdown signal arrives.
func (app *Application) Start() error {
	go func() {
		app.logger.Info("starting HTTP server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	app.startBackgroundServices()
	app.waitForShutdown()
	return nil
}

// startBackgroundServices starts the periodic USB-presence scan that
// logs newly-recognized devices (a scaled-down analogue of
// device-service's startDeviceHealthMonitoring ticker: that loop pings
// database-tracked devices, this one has no device records to poll,
// only the bus itself).
func (app *Application) startBackgroundServices() {
	go app.scanUSBPeriodically()
	app.logger.Info("background services started")
}

func (app *Application) scanUSBPeriodically() {
	ticker := time.NewTicker(app.config.Device.ScanInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx := gousb.NewContext()
		db := registry.NewDatabase()

		devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool { return true })
		if err != nil {
			app.logger.Warn("USB scan failed", zap.Error(err))
			ctx.Close()
			continue
		}
		for _, d := range devices {
			if rec, err := db.Lookup(d.Desc.Vendor, d.Desc.Product); err == nil {
				app.logger.Debug("recognized device present", zap.String("model", rec.DisplayName))
			}
			d.Close()
		}
		ctx.Close()
	}
}

func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	app.shutdown()
}

func (app *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.manager.Disconnect()

	if err := app.logger.Sync(); err != nil {
		fmt.Printf("logger sync error: %v\n", err)
	}

	app.logger.Info("application shutdown complete")
}
