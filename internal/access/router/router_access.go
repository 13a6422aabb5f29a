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
	"github.com/atriumcrm/atrium/internal/access/consts"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) accessRouter(r fiber.Router, auth fiber.Handler) {
	accessGroup := r.Group("/access", auth)
	{
		accessGroup.Get("/navigation", rt.navigation)  // GET /access/navigation?path= - 导航载荷，按 path 标记活动项
		accessGroup.Get("/status", rt.accessStatus)    // GET /access/status - 当前解析状态
		accessGroup.Post("/refresh", rt.refreshAccess) // POST /access/refresh - 强制重新解析
		accessGroup.Post("/logout", rt.logout)         // POST /access/logout - 丢弃解析状态与缓存快照

		accessGroup.Get("/check/items/:itemCode", rt.checkMenuItem)              // GET /access/check/items/:itemCode
		accessGroup.Get("/check/permissions/:permissionCode", rt.checkPermission) // GET /access/check/permissions/:permissionCode
	}
}

// navigation 当前主体的导航载荷；未就绪时返回空导航与解析状态
func (rt *Router) navigation(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}

	view, st := rt.Services.Access.Navigation(c.UserContext(), principalId, c.Query("path"))

	c.Locals(consts.DETAIL, fiber.Map{
		"status":     st,
		"navigation": view,
	})
	return nil
}

// accessStatus 当前主体的解析状态
func (rt *Router) accessStatus(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}

	c.Locals(consts.DETAIL, rt.Services.Access.Status(c.UserContext(), principalId))
	return nil
}

// refreshAccess 强制重新解析当前主体的授权
func (rt *Router) refreshAccess(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}

	c.Locals(consts.DETAIL, rt.Services.Access.Refresh(c.UserContext(), principalId))
	c.Locals(consts.OPERATION, "refresh access")
	return nil
}

// checkMenuItem 菜单项可见性探测
func (rt *Router) checkMenuItem(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}
	itemCode := c.Params("itemCode")
	if itemCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "itemCode is required", c.Path())
	}

	c.Locals(consts.DETAIL, rt.Services.Access.CheckMenuItem(c.UserContext(), principalId, itemCode))
	return nil
}

// checkPermission 细粒度权限探测
func (rt *Router) checkPermission(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}
	permissionCode := c.Params("permissionCode")
	if permissionCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "permissionCode is required", c.Path())
	}

	c.Locals(consts.DETAIL, rt.Services.Access.CheckPermission(c.UserContext(), principalId, permissionCode))
	return nil
}

// logout 登出清理，下次登录重新解析
func (rt *Router) logout(c *fiber.Ctx) error {
	principalId := middleware.PrincipalFromLocals(c)
	if principalId == "" {
		return httpx.WithRepErrMsg(c, httpx.Unauthorized.Code, httpx.Unauthorized.Msg, c.Path())
	}

	rt.Services.Access.Logout(c.UserContext(), principalId)

	c.Locals(consts.OPERATION, "logout")
	return nil
}
