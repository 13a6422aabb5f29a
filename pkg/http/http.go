package http

import (
	"fmt"
	"time"
)

// Http holds the fiber server configuration.
type Http struct {
	Host            string
	Port            int
	ContextPath     string // 路由前缀，例如 /api/v1
	BodyLimit       int    // 请求体大小限制（字节）
	PProf           bool
	ExposeMetrics   bool
	AccessLog       bool
	ReadTimeout     int // 单位秒
	WriteTimeout    int
	IdleTimeout     int
	ShutdownTimeout int
	TLS             TLS
	Auth            Auth
}

type TLS struct {
	CertFile string
	KeyFile  string
}

type Auth struct {
	SecretKey     string
	AccessExpire  time.Duration
	RefreshExpire time.Duration
}

// SetDefaults 填充缺省值
func (h *Http) SetDefaults() {
	if h.Port <= 0 {
		h.Port = 8080
	}
	if h.ContextPath == "" {
		h.ContextPath = "/api/v1"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 30
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 60
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30
	}
	if h.Auth.AccessExpire <= 0 {
		h.Auth.AccessExpire = 24 * time.Hour
	}
	if h.Auth.RefreshExpire <= 0 {
		h.Auth.RefreshExpire = 7 * 24 * time.Hour
	}
}

// Addr returns the listen address in host:port form.
func (h *Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
