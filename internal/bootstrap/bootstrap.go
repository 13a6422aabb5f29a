// Copyright 2025 Atrium Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/conf"
	"github.com/atriumcrm/atrium/internal/access/router"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/cron"
	"github.com/atriumcrm/atrium/pkg/database"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type App struct {
	HttpApp   *fiber.App
	Metrics   *metrics.Server
	Scheduler *cron.Scheduler
	Logger    *zap.Logger
	AppConf   conf.AppConfig
}

// InitAppFunc init app function type
type InitAppFunc func(configFile string, logger *zap.Logger, db database.IDatabase, redisCache cache.ICache) (*App, func(), error)

func NewApp(
	rt *router.Router,
	logger *zap.Logger,
	loader *catalog.Loader,
	metricsServer *metrics.Server,
	appConf conf.AppConfig,
) (*App, func(), error) {
	httpApp := rt.Router()

	// 目录缓存定时回填，写侧失效后兜底
	catalogConf := appConf.Catalog
	catalogConf.SetDefaults()
	scheduler := cron.NewScheduler()
	err := scheduler.AddFunc(catalogConf.RefreshCron, "catalog_refresh", func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := loader.Refresh(refreshCtx); err != nil {
			logger.Sugar().Warnw("catalog refresh failed", "error", err)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		scheduler.Stop()

		if metricsServer != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(stopCtx); err != nil {
				logger.Sugar().Errorf("metrics server shutdown error: %v", err)
			}
		}
	}

	app := &App{
		HttpApp:   httpApp,
		Metrics:   metricsServer,
		Scheduler: scheduler,
		Logger:    logger,
		AppConf:   appConf,
	}
	return app, cleanup, nil
}

// Bootstrap init app, return App instance and cleanup function
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), conf.AppConfig, error) {
	// load config
	appConf := conf.NewConf(configFile)

	// init logger
	logger, err := log.NewLog(&appConf.Log)
	if err != nil {
		return nil, nil, appConf, err
	}

	// init Redis and database
	redisClient, err := cache.NewRedis(appConf.Redis)
	if err != nil {
		return nil, nil, appConf, err
	}
	dbClient, err := database.NewDatabase(appConf.Database)
	if err != nil {
		return nil, nil, appConf, err
	}

	// create interface implementation
	db := database.NewGormDB(dbClient)
	redisCache := cache.NewRedisCache(redisClient)

	// Wire build App
	app, cleanup, err := initApp(configFile, logger, db, redisCache)
	if err != nil {
		return nil, nil, appConf, err
	}

	return app, cleanup, appConf, nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	logger := app.Logger
	appConf := app.AppConf

	// start catalog refresh schedule
	app.Scheduler.Start()

	// start standalone metrics listener
	if app.Metrics != nil {
		if err := app.Metrics.Start(); err != nil {
			logger.Sugar().Errorf("metrics server failed: %v", err)
		}
	}

	// set signal listener (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// start HTTP server (async)
	go func() {
		addr := fmt.Sprintf("%s:%d", appConf.Http.Host, appConf.Http.Port)
		logger.Sugar().Infow("HTTP listener started",
			"address", addr,
		)
		var err error
		if appConf.Http.TLS.CertFile != "" && appConf.Http.TLS.KeyFile != "" {
			err = app.HttpApp.ListenTLS(addr, appConf.Http.TLS.CertFile, appConf.Http.TLS.KeyFile)
		} else {
			err = app.HttpApp.Listen(addr)
		}
		if err != nil {
			logger.Sugar().Errorw("HTTP listener failed",
				"address", addr,
				"error", err,
			)
		}
	}()

	// wait for exit signal
	sig := <-quit
	logger.Sugar().Infof("Received signal: %v, shutting down gracefully...", sig)

	// close HTTP server first so in-flight requests drain
	shutdownTimeout := time.Duration(appConf.Http.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Sugar().Errorf("HTTP server shutdown error: %v", err)
	} else {
		logger.Info("HTTP server shut down gracefully")
	}

	// close scheduler, metrics and other resources
	cleanup()

	logger.Info("Server shutdown complete")
}
