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

package conf

import (
	"fmt"
	"sync"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/resolver"
	"github.com/atriumcrm/atrium/internal/identity"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/database"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppConfig 应用配置聚合
type AppConfig struct {
	Log       log.Conf
	Http      httpx.Http
	Database  database.Database
	Redis     cache.Redis
	Identity  identity.Config
	Catalog   catalog.Config
	Resolver  resolver.Config
	Guard     middleware.GuardConfig
	Snapshots cache.HybridCacheConfig
	Metrics   metrics.MetricsConfig
}

var (
	cfg  AppConfig
	once sync.Once
)

// NewConf 加载配置文件，进程内只解析一次
func NewConf(confFile string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load conf file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile load conf file
func LoadConfigFile(confFile string) (AppConfig, error) {

	config := viper.New()
	config.SetConfigFile(confFile)
	config.SetConfigType("toml")
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("The configuration changes, re-analyze the configuration file: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorf("failed to unmarshal configuration file: %v", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	cfg.Http.SetDefaults()
	fmt.Printf("[Init] config file path: %s\n", confFile)

	return cfg, nil
}
