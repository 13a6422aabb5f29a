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

package router

import (
	"time"

	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/resolver"
	"github.com/atriumcrm/atrium/internal/access/service"
	"github.com/atriumcrm/atrium/pkg/cache"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/atriumcrm/atrium/pkg/version"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Http     *httpx.Http
	Guard    middleware.GuardConfig
	Services *service.Services
	Resolver *resolver.Resolver
	Cache    cache.ICache
	Registry *prometheus.Registry
}

func NewRouter(
	httpConf *httpx.Http,
	guardConf middleware.GuardConfig,
	services *service.Services,
	rsv *resolver.Resolver,
	redisCache cache.ICache,
	registry *prometheus.Registry,
) *Router {
	return &Router{
		Http:     httpConf,
		Guard:    guardConf,
		Services: services,
		Resolver: rsv,
		Cache:    redisCache,
		Registry: registry,
	}
}

func (rt *Router) Router() *fiber.App {
	// 设置默认的 BodyLimit（100MB）
	bodyLimit := rt.Http.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 100 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:      "Atrium",
		ReadTimeout:  time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:    bodyLimit,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	// 中间件
	app.Use(
		middleware.ExceptionMiddleware,
		middleware.CorsMiddleware(),
		middleware.RealIPMiddleware(),
		middleware.RequestMiddleware(),
		middleware.TraceMiddleware(),
		middleware.AccessLogMiddleware(rt.Http),
		middleware.UnifiedResponseMiddleware(),
	)

	if rt.Http.PProf {
		app.Use(pprof.New())
	}

	if rt.Http.ExposeMetrics && rt.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// 版本信息
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	api := app.Group(rt.Http.ContextPath)
	{
		auth := middleware.AuthorizationMiddleware(rt.Http.Auth.SecretKey, rt.Cache)

		rt.accessRouter(api, auth)
		rt.roleRouter(api, auth)
		rt.menuRouter(api, auth)
	}

	// 找不到路径时的处理 - 必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		c.Status(fiber.StatusNotFound)
		return httpx.WithRepErr(c, httpx.NotFound.Code, "request path not found", c.Path())
	})

	return app
}

// areaCodes 每类资源的 NOT_FOUND / CONFLICT 业务码
type areaCodes struct {
	notFound *httpx.Response
	conflict *httpx.Response
}

var (
	roleArea     = areaCodes{httpx.RoleNotFound, httpx.RoleAlreadyExist}
	menuArea     = areaCodes{httpx.MenuNotFound, httpx.MenuAlreadyExist}
	menuItemArea = areaCodes{httpx.MenuItemNotFound, httpx.MenuItemAlreadyExist}
	draftArea    = areaCodes{httpx.DraftNotFound, httpx.Failed}
)

// repErr 按错误分类映射业务响应码
// 网络与持久化失败不向客户端透出内部细节
func repErr(c *fiber.Ctx, err error, area areaCodes) error {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, err.Error(), c.Path())
	case errs.KindConflict:
		return httpx.WithRepErrMsg(c, area.conflict.Code, err.Error(), c.Path())
	case errs.KindNotFound:
		return httpx.WithRepErrMsg(c, area.notFound.Code, err.Error(), c.Path())
	case errs.KindAccessDenied:
		return httpx.WithRepErrMsg(c, httpx.PermissionDenied.Code, err.Error(), c.Path())
	case errs.KindNetwork:
		return httpx.WithRepErrMsg(c, httpx.AccessUnavailable.Code, httpx.AccessUnavailable.Msg, c.Path())
	case errs.KindPersistence:
		return httpx.WithRepErrMsg(c, httpx.InternalError.Code, httpx.InternalError.Msg, c.Path())
	default:
		return httpx.WithRepErrMsg(c, httpx.Failed.Code, err.Error(), c.Path())
	}
}
