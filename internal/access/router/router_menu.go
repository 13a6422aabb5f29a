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
	"github.com/atriumcrm/atrium/internal/access/model"
	httpx "github.com/atriumcrm/atrium/pkg/http"
	"github.com/atriumcrm/atrium/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) menuRouter(r fiber.Router, auth fiber.Handler) {
	// 目录管理界面自身也是受控菜单项
	guard := middleware.GuardMenuItem(rt.Resolver, model.ItemCodeMenuAdmin, rt.Guard)

	menuGroup := r.Group("/menus", auth, guard)
	{
		menuGroup.Get("/", rt.menuTree)    // GET /menus - 整棵目录树（含空组）
		menuGroup.Post("/", rt.createMenu) // POST /menus - 新建菜单组

		// 菜单项路由先于 :menuCode 注册，避免被参数路由吞掉
		menuGroup.Put("/items/:itemCode", rt.updateMenuItem) // PUT /menus/items/:itemCode - 更新菜单项
		menuGroup.Delete("/items/:itemCode", // DELETE /menus/items/:itemCode - 下架（软删除）
			middleware.GuardPermission(rt.Resolver, model.PermMenuManage, rt.Guard), rt.retireMenuItem)

		menuGroup.Put("/:menuCode", rt.updateMenu) // PUT /menus/:menuCode - 更新菜单组
		menuGroup.Delete("/:menuCode", // DELETE /menus/:menuCode - 删除菜单组及其菜单项
			middleware.GuardPermission(rt.Resolver, model.PermMenuManage, rt.Guard), rt.deleteMenu)
		menuGroup.Post("/:menuCode/items", rt.createMenuItem) // POST /menus/:menuCode/items - 新建菜单项
	}
}

// menuTree 管理视角的整棵目录树
func (rt *Router) menuTree(c *fiber.Ctx) error {
	tree, err := rt.Services.Catalog.GetMenuTree(c.UserContext())
	if err != nil {
		return repErr(c, err, menuArea)
	}

	c.Locals(consts.DETAIL, tree)
	return nil
}

// createMenu 新建菜单组
func (rt *Router) createMenu(c *fiber.Ctx) error {
	var req model.CreateMenuReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	menu, err := rt.Services.Catalog.CreateMenu(c.UserContext(), &req)
	if err != nil {
		return repErr(c, err, menuArea)
	}

	c.Locals(consts.DETAIL, menu)
	c.Locals(consts.OPERATION, "create menu")
	return nil
}

// updateMenu 更新菜单组
func (rt *Router) updateMenu(c *fiber.Ctx) error {
	menuCode := c.Params("menuCode")
	if menuCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "menuCode is required", c.Path())
	}

	var req model.UpdateMenuReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	menu, err := rt.Services.Catalog.UpdateMenu(c.UserContext(), menuCode, &req)
	if err != nil {
		return repErr(c, err, menuArea)
	}

	c.Locals(consts.DETAIL, menu)
	c.Locals(consts.OPERATION, "update menu")
	return nil
}

// deleteMenu 删除菜单组及其全部菜单项
func (rt *Router) deleteMenu(c *fiber.Ctx) error {
	menuCode := c.Params("menuCode")
	if menuCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "menuCode is required", c.Path())
	}

	if err := rt.Services.Catalog.DeleteMenu(c.UserContext(), menuCode); err != nil {
		return repErr(c, err, menuArea)
	}

	c.Locals(consts.OPERATION, "delete menu")
	return nil
}

// createMenuItem 在菜单组下新建菜单项
func (rt *Router) createMenuItem(c *fiber.Ctx) error {
	menuCode := c.Params("menuCode")
	if menuCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "menuCode is required", c.Path())
	}

	var req model.CreateMenuItemReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	item, err := rt.Services.Catalog.CreateMenuItem(c.UserContext(), menuCode, &req)
	if err != nil {
		return repErr(c, err, menuItemArea)
	}

	c.Locals(consts.DETAIL, item)
	c.Locals(consts.OPERATION, "create menu item")
	return nil
}

// updateMenuItem 更新菜单项
func (rt *Router) updateMenuItem(c *fiber.Ctx) error {
	itemCode := c.Params("itemCode")
	if itemCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "itemCode is required", c.Path())
	}

	var req model.UpdateMenuItemReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	item, err := rt.Services.Catalog.UpdateMenuItem(c.UserContext(), itemCode, &req)
	if err != nil {
		return repErr(c, err, menuItemArea)
	}

	c.Locals(consts.DETAIL, item)
	c.Locals(consts.OPERATION, "update menu item")
	return nil
}

// retireMenuItem 下架菜单项（软删除），管理端仍可见
func (rt *Router) retireMenuItem(c *fiber.Ctx) error {
	itemCode := c.Params("itemCode")
	if itemCode == "" {
		return httpx.WithRepErrMsg(c, httpx.BadRequest.Code, "itemCode is required", c.Path())
	}

	if err := rt.Services.Catalog.RetireMenuItem(c.UserContext(), itemCode); err != nil {
		return repErr(c, err, menuItemArea)
	}

	c.Locals(consts.OPERATION, "retire menu item")
	return nil
}
