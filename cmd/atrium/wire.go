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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/conf"
	"github.com/atriumcrm/atrium/internal/access/repo"
	"github.com/atriumcrm/atrium/internal/access/resolver"
	"github.com/atriumcrm/atrium/internal/access/router"
	"github.com/atriumcrm/atrium/internal/access/service"
	"github.com/atriumcrm/atrium/internal/bootstrap"
	"github.com/atriumcrm/atrium/internal/identity"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/database"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func initApp(configFile string, logger *zap.Logger, db database.IDatabase, redisCache cache.ICache) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		confProviderSet,
		// 仓储层
		repo.ProviderSet,
		// 目录与快照缓存层
		cacheProviderSet,
		// 上游身份服务层
		identity.ProviderSet,
		// 解析层
		resolver.ProviderSet,
		// 服务层
		service.ProviderSet,
		// 指标层
		metricsProviderSet,
		// 路由层
		router.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}

// confProviderSet 配置层 ProviderSet
var confProviderSet = wire.NewSet(
	provideConf,
	provideHttpConfig,
	provideGuardConfig,
	provideIdentityConfig,
	provideCatalogConfig,
	provideResolverConfig,
	provideMetricsConfig,
)

func provideConf(configFile string) conf.AppConfig {
	return conf.NewConf(configFile)
}

func provideHttpConfig(appConf conf.AppConfig) *httpx.Http {
	return &appConf.Http
}

func provideGuardConfig(appConf conf.AppConfig) middleware.GuardConfig {
	return appConf.Guard
}

func provideIdentityConfig(appConf conf.AppConfig) identity.Config {
	return appConf.Identity
}

func provideCatalogConfig(appConf conf.AppConfig) catalog.Config {
	return appConf.Catalog
}

func provideResolverConfig(appConf conf.AppConfig) resolver.Config {
	return appConf.Resolver
}

func provideMetricsConfig(appConf conf.AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

// cacheProviderSet 目录与快照缓存层 ProviderSet
var cacheProviderSet = wire.NewSet(
	catalog.NewLoader,
	provideSnapshotCache,
)

// provideSnapshotCache 快照走本地+Redis双层缓存；未配置时双层全开
func provideSnapshotCache(appConf conf.AppConfig, redisCache cache.ICache) *cache.HybridCache {
	snapConf := appConf.Snapshots
	if !snapConf.LocalEnabled && !snapConf.RemoteEnabled {
		snapConf.LocalEnabled = true
		snapConf.RemoteEnabled = true
		snapConf.LocalTTLRatio = 0.5
	}
	local := cache.NewFastCache(cache.FastCacheConfig{MaxBytes: snapConf.LocalMaxBytes})
	return cache.NewHybridCache(local, redisCache, snapConf)
}

// metricsProviderSet 指标层 ProviderSet
var metricsProviderSet = wire.NewSet(
	metrics.ProviderSet,
	provideRegistry,
)

func provideRegistry(server *metrics.Server) *prometheus.Registry {
	return server.GetRegistry()
}
