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
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) roleRouter(r fiber.Router, auth fiber.Handler) {
	// 角色管理界面自身也是受控菜单项
	guard := middleware.GuardMenuItem(rt.Resolver, model.ItemCodeRoleAdmin, rt.Guard)

	roleGroup := r.Group("/roles", auth, guard)
	{
		roleGroup.Get("/", rt.listRoles)   // GET /roles - 分页列出角色（支持状态过滤）
		roleGroup.Post("/", rt.createRole) // POST /roles - 创建角色，授权与角色一并落库

		// 草稿路由先于 :roleId 注册，避免被参数路由吞掉
		roleGroup.Post("/drafts", rt.saveDraft)            // POST /roles/drafts - 保存编辑草稿
		roleGroup.Get("/drafts/:draftId", rt.getDraft)     // GET /roles/drafts/:draftId - 恢复草稿
		roleGroup.Delete("/drafts/:draftId", rt.dropDraft) // DELETE /roles/drafts/:draftId - 放弃草稿

		roleGroup.Get("/:roleId", rt.getRole)                  // GET /roles/:roleId - 角色详情
		roleGroup.Put("/:roleId", rt.updateRole)               // PUT /roles/:roleId - 更新角色（roleCode 不可变）
		roleGroup.Put("/:roleId/status", rt.updateRoleStatus)  // PUT /roles/:roleId/status - 启用/停用/挂起
		roleGroup.Delete("/:roleId", // DELETE /roles/:roleId - 删除，系统角色受保护
			middleware.GuardPermission(rt.Resolver, model.PermRoleManage, rt.Guard), rt.deleteRole)
	}
}

// listRoles 分页列出角色
func (rt *Router) listRoles(c *fiber.Ctx) error {
	var req model.ListRolesReq
	if err := c.QueryParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	page, err := rt.Services.Role.GetRolesPaginated(&req)
	if err != nil {
		if errs.IsKind(err, errs.KindValidation) {
			return httpx.WithRepErrMsg(c, httpx.InvalidStatusParameter.Code, err.Error(), c.Path())
		}
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.DETAIL, page)
	return nil
}

// createRole 创建角色；menuAccess 先按目录归一化再落库
func (rt *Router) createRole(c *fiber.Ctx) error {
	var req model.CreateRoleReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	role, err := rt.Services.Role.CreateRoleWithMenuAccess(c.UserContext(), &req)
	if err != nil {
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.DETAIL, role)
	c.Locals(consts.OPERATION, "create role")
	return nil
}

// getRole 角色详情
func (rt *Router) getRole(c *fiber.Ctx) error {
	roleId := c.Params("roleId")
	if roleId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "roleId is required", c.Path())
	}

	role, err := rt.Services.Role.GetRole(roleId)
	if err != nil {
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.DETAIL, role)
	return nil
}

// updateRole 更新角色；请求显式携带 roleCode 视为客户端错误
func (rt *Router) updateRole(c *fiber.Ctx) error {
	roleId := c.Params("roleId")
	if roleId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "roleId is required", c.Path())
	}

	var req struct {
		model.UpdateRoleReq
		RoleCode string `json:"roleCode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}
	if req.RoleCode != "" {
		return httpx.WithRepErrMsg(c, httpx.RoleCodeImmutable.Code, httpx.RoleCodeImmutable.Msg, c.Path())
	}

	role, err := rt.Services.Role.UpdateRoleWithMenuAccess(c.UserContext(), roleId, &req.UpdateRoleReq)
	if err != nil {
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.DETAIL, role)
	c.Locals(consts.OPERATION, "update role")
	return nil
}

// updateRoleStatus 调整角色状态
func (rt *Router) updateRoleStatus(c *fiber.Ctx) error {
	roleId := c.Params("roleId")
	if roleId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "roleId is required", c.Path())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.Services.Role.UpdateRoleStatus(roleId, req.Status); err != nil {
		if errs.IsKind(err, errs.KindValidation) {
			return httpx.WithRepErrMsg(c, httpx.InvalidStatusParameter.Code, err.Error(), c.Path())
		}
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.OPERATION, "update role status")
	return nil
}

// deleteRole 删除角色
func (rt *Router) deleteRole(c *fiber.Ctx) error {
	roleId := c.Params("roleId")
	if roleId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "roleId is required", c.Path())
	}

	if err := rt.Services.Role.DeleteRole(roleId); err != nil {
		// DeleteRole 的 VALIDATION 只有一种：系统角色保护
		if errs.IsKind(err, errs.KindValidation) {
			return httpx.WithRepErrMsg(c, httpx.SystemRoleProtected.Code, err.Error(), c.Path())
		}
		return repErr(c, err, roleArea)
	}

	c.Locals(consts.OPERATION, "delete role")
	return nil
}

// saveDraft 保存编辑草稿，中断的编辑会话可凭 draftId 恢复
func (rt *Router) saveDraft(c *fiber.Ctx) error {
	var draft model.RoleDraft
	if err := c.BodyParser(&draft); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	saved, err := rt.Services.Role.SaveDraft(c.UserContext(), &draft)
	if err != nil {
		return repErr(c, err, draftArea)
	}

	c.Locals(consts.DETAIL, saved)
	c.Locals(consts.OPERATION, "save role draft")
	return nil
}

// getDraft 恢复草稿
func (rt *Router) getDraft(c *fiber.Ctx) error {
	draftId := c.Params("draftId")
	if draftId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "draftId is required", c.Path())
	}

	draft, err := rt.Services.Role.GetDraft(c.UserContext(), draftId)
	if err != nil {
		return repErr(c, err, draftArea)
	}

	c.Locals(consts.DETAIL, draft)
	return nil
}

// dropDraft 放弃草稿
func (rt *Router) dropDraft(c *fiber.Ctx) error {
	draftId := c.Params("draftId")
	if draftId == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "draftId is required", c.Path())
	}

	if err := rt.Services.Role.DeleteDraft(c.UserContext(), draftId); err != nil {
		return repErr(c, err, draftArea)
	}

	c.Locals(consts.OPERATION, "discard role draft")
	return nil
}
