package middleware

import (
	"strconv"

	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/resolver"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/atriumcrm/atrium/pkg/statemachine"
	"github.com/gofiber/fiber/v2"
)

// GuardConfig 路由守卫配置
type GuardConfig struct {
	UnauthorizedPath string // 已就绪但无权限时的跳转目的地
	RefreshPath      string // 拒绝载荷里的重试入口
	BackPath         string // 拒绝载荷里的返回入口
	RetryAfter       int    // 解析未完成时建议的重试间隔，单位秒
}

func (gc *GuardConfig) setDefaults() {
	if gc.UnauthorizedPath == "" {
		gc.UnauthorizedPath = "/unauthorized"
	}
	if gc.RefreshPath == "" {
		gc.RefreshPath = "/access/refresh"
	}
	if gc.BackPath == "" {
		gc.BackPath = "/"
	}
	if gc.RetryAfter <= 0 {
		gc.RetryAfter = 1
	}
}

// guardPayload 非放行响应的可操作载荷
type guardPayload struct {
	State     string `json:"state"`
	Gate      string `json:"gate"`
	Kind      string `json:"kind,omitempty"`
	RetryPath string `json:"retryPath,omitempty"`
	BackPath  string `json:"backPath,omitempty"`
}

// GuardMenuItem 按菜单项可见性放行
// 守卫无副作用：同一解析状态下重复请求得到同一判定
func GuardMenuItem(r *resolver.Resolver, itemCode string, cfg GuardConfig) fiber.Handler {
	return guard(r, cfg, "menuItem:"+itemCode, func(h *resolver.Handle) bool {
		return h.HasMenuAccess(itemCode)
	})
}

// GuardPermission 按细粒度权限放行
func GuardPermission(r *resolver.Resolver, permissionCode string, cfg GuardConfig) fiber.Handler {
	return guard(r, cfg, "permission:"+permissionCode, func(h *resolver.Handle) bool {
		return h.HasPermission(permissionCode)
	})
}

// guard 每个请求独立走一遍判定状态机：
// 未settle → 202 等待重试；ERROR(ACCESS_DENIED) → 403；
// ERROR(NETWORK/UNKNOWN) → 503，不误报为无权限；
// READY 且谓词通过 → 放行；READY 且谓词不通过 → 302 跳转
func guard(r *resolver.Resolver, cfg GuardConfig, gate string, allowed func(*resolver.Handle) bool) fiber.Handler {
	cfg.setDefaults()
	return func(c *fiber.Ctx) error {
		principalId := PrincipalFromLocals(c)
		if principalId == "" {
			metrics.RecordGuardDecision("denied")
			return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
		}

		h := r.Handle(principalId)
		state := h.Resolve(c.UserContext())
		sm := statemachine.NewGuardStateMachine()

		if !state.IsSettled() {
			metrics.RecordGuardDecision("pending")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(cfg.RetryAfter))
			c.Status(fiber.StatusAccepted)
			return httpx.WithRepDetail(c, httpx.AccessPending.Code, httpx.AccessPending.Msg, guardPayload{
				State:     string(sm.Current()),
				Gate:      gate,
				RetryPath: c.Path(),
			})
		}

		if err := h.Err(); err != nil {
			if smErr := sm.TransitionTo(statemachine.GuardDenied); smErr != nil {
				log.Warnw("guard state transition failed", "error", smErr)
			}
			kind := errs.KindOf(err)
			payload := guardPayload{
				State:     string(sm.Current()),
				Gate:      gate,
				Kind:      string(kind),
				RetryPath: cfg.RefreshPath,
				BackPath:  cfg.BackPath,
			}
			if kind == errs.KindAccessDenied {
				metrics.RecordGuardDecision("denied")
				c.Status(fiber.StatusForbidden)
				return httpx.WithRepDetail(c, httpx.PermissionDenied.Code, httpx.PermissionDenied.Msg, payload)
			}
			metrics.RecordGuardDecision("unavailable")
			c.Status(fiber.StatusServiceUnavailable)
			return httpx.WithRepDetail(c, httpx.AccessUnavailable.Code, httpx.AccessUnavailable.Msg, payload)
		}

		if allowed(h) {
			if smErr := sm.TransitionTo(statemachine.GuardGranted); smErr != nil {
				log.Warnw("guard state transition failed", "error", smErr)
			}
			metrics.RecordGuardDecision("granted")
			return c.Next()
		}

		if smErr := sm.TransitionTo(statemachine.GuardDenied); smErr != nil {
			log.Warnw("guard state transition failed", "error", smErr)
		}
		metrics.RecordGuardDecision("denied")
		return c.Redirect(cfg.UnauthorizedPath, fiber.StatusFound)
	}
}
