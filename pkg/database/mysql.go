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

package database

import (
	"fmt"
	"time"

	"github.com/atriumcrm/atrium/pkg/log"

	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// IDatabase define database interface (abstract)
type IDatabase interface {
	// Database return the underlying *gorm.DB
	Database() *gorm.DB
}

// GormDB GORM database implementation
type GormDB struct {
	db *gorm.DB
}

// NewGormDB create GORM database instance
func NewGormDB(db *gorm.DB) IDatabase {
	return &GormDB{db: db}
}

// Database return the underlying *gorm.DB
func (g *GormDB) Database() *gorm.DB {
	return g.db
}

// Source is one read replica endpoint. Empty credential fields inherit
// from the primary.
type Source struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type Database struct {
	Type         string
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	OutPut       bool     `mapstructure:"output"`
	MaxOpenConns int      `mapstructure:"maxOpenConns"`
	MaxIdleConns int      `mapstructure:"maxIdleConns"`
	MaxLifetime  int      `mapstructure:"maxLifeTime"`
	MaxIdleTime  int      `mapstructure:"maxIdleTime"`
	Replicas     []Source `mapstructure:"replicas"`
}

const (
	defaultTablePrefix = "t_"
	defaultLogLevel    = logger.Info
	defaultSlowSQL     = time.Second
)

// NewDatabase initializes and returns a new Gorm database instance.
// When replicas are configured, read queries are routed to them through
// the dbresolver plugin; writes stay on the primary.
func NewDatabase(cfg Database) (*gorm.DB, error) {

	if cfg.Type != "mysql" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	dsn := buildMySQLDSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DB)

	// SQL 明文只在应用日志级别为 DEBUG 时输出，其余级别只记慢查询和错误
	gormLevel := defaultLogLevel
	if log.GetLevel() > zapcore.DebugLevel {
		gormLevel = logger.Warn
	}

	logConfig := logger.Config{
		SlowThreshold:             defaultSlowSQL,
		LogLevel:                  gormLevel,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}

	var gormLogger logger.Interface
	if cfg.OutPut {
		gormLogger = NewGormLoggerAdapter(logConfig, gormLevel)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   defaultTablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if len(cfg.Replicas) > 0 {
		replicaDialectors := make([]gorm.Dialector, 0, len(cfg.Replicas))
		for _, r := range cfg.Replicas {
			user, password := r.User, r.Password
			if user == "" {
				user, password = cfg.User, cfg.Password
			}
			dbName := r.DB
			if dbName == "" {
				dbName = cfg.DB
			}
			replicaDialectors = append(replicaDialectors,
				mysql.Open(buildMySQLDSN(user, password, r.Host, r.Port, dbName)))
		}

		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas:          replicaDialectors,
			TraceResolverMode: cfg.OutPut,
		}).
			SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second).
			SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetMaxOpenConns(cfg.MaxOpenConns))
		if err != nil {
			return nil, fmt.Errorf("failed to register dbresolver plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected successfully")

	return db, nil
}

func buildMySQLDSN(user, password, host, port, dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbName)
}
