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

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/internal/access/navigation"
	"github.com/atriumcrm/atrium/internal/access/repo"
	"github.com/atriumcrm/atrium/pkg/log"
	"gorm.io/gorm"
)

// CatalogService 菜单目录管理服务（主数据维护面）
//
// 访问核心把目录当只读输入，本服务是目录唯一的写入口；
// 每次写入后使目录缓存失效，读路径下一次访问时重建。
type CatalogService struct {
	menuRepo repo.IMenuRepository
	loader   *catalog.Loader
}

func NewCatalogService(menuRepo repo.IMenuRepository, loader *catalog.Loader) *CatalogService {
	return &CatalogService{
		menuRepo: menuRepo,
		loader:   loader,
	}
}

// GetMenuTree 完整目录树，组与组内菜单项均按 sortOrder 排序
func (cs *CatalogService) GetMenuTree(ctx context.Context) ([]model.MenuGroup, error) {
	tree, err := cs.loader.GetMenuTree(ctx)
	if err != nil {
		log.Errorw("failed to load menu tree", "error", err)
		return nil, errs.Wrap(err, errs.KindNetwork, "load menu tree")
	}
	return tree, nil
}

// CreateMenu 创建菜单组
func (cs *CatalogService) CreateMenu(ctx context.Context, req *model.CreateMenuReq) (*model.Menu, error) {
	if strings.TrimSpace(req.MenuCode) == "" {
		return nil, errs.New(errs.KindValidation, "menu code is required")
	}
	if strings.TrimSpace(req.MenuName) == "" {
		return nil, errs.New(errs.KindValidation, "menu name is required")
	}
	if existing, err := cs.menuRepo.GetMenu(req.MenuCode); err == nil && existing != nil {
		return nil, errs.Newf(errs.KindConflict, "menu code %s already exists", req.MenuCode)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorw("failed to check menu code uniqueness", "menuCode", req.MenuCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "check menu code uniqueness")
	}
	cs.checkIcon("menu", req.MenuCode, req.Icon)

	menu := &model.Menu{
		MenuCode:    req.MenuCode,
		MenuName:    req.MenuName,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	}
	if err := cs.menuRepo.CreateMenu(menu); err != nil {
		log.Errorw("failed to create menu", "menuCode", req.MenuCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "create menu")
	}

	cs.invalidate(ctx)
	log.Infow("menu created", "menuCode", menu.MenuCode)
	return menu, nil
}

// UpdateMenu 更新菜单组
func (cs *CatalogService) UpdateMenu(ctx context.Context, menuCode string, req *model.UpdateMenuReq) (*model.Menu, error) {
	updates := map[string]any{}
	if req.MenuName != nil {
		if strings.TrimSpace(*req.MenuName) == "" {
			return nil, errs.New(errs.KindValidation, "menu name cannot be empty")
		}
		updates["menu_name"] = *req.MenuName
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Icon != nil {
		cs.checkIcon("menu", menuCode, *req.Icon)
		updates["icon"] = *req.Icon
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		return cs.getMenu(menuCode)
	}

	if err := cs.menuRepo.UpdateMenuByMenuCode(menuCode, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "menu %s not found", menuCode)
		}
		log.Errorw("failed to update menu", "menuCode", menuCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "update menu")
	}

	cs.invalidate(ctx)
	log.Infow("menu updated", "menuCode", menuCode)
	return cs.getMenu(menuCode)
}

// DeleteMenu 删除菜单组及其全部菜单项
// 引用被删组的角色授权会在下一次归一化/解析时被剔除
func (cs *CatalogService) DeleteMenu(ctx context.Context, menuCode string) error {
	if err := cs.menuRepo.DeleteMenuWithItems(menuCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Newf(errs.KindNotFound, "menu %s not found", menuCode)
		}
		log.Errorw("failed to delete menu", "menuCode", menuCode, "error", err)
		return errs.Wrap(err, errs.KindPersistence, "delete menu")
	}

	cs.invalidate(ctx)
	log.Infow("menu deleted", "menuCode", menuCode)
	return nil
}

// CreateMenuItem 在菜单组下创建菜单项
func (cs *CatalogService) CreateMenuItem(ctx context.Context, menuCode string, req *model.CreateMenuItemReq) (*model.MenuItem, error) {
	if strings.TrimSpace(req.ItemCode) == "" {
		return nil, errs.New(errs.KindValidation, "item code is required")
	}
	if strings.TrimSpace(req.ItemName) == "" {
		return nil, errs.New(errs.KindValidation, "item name is required")
	}

	if _, err := cs.menuRepo.GetMenu(menuCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "menu %s not found", menuCode)
		}
		log.Errorw("failed to load parent menu", "menuCode", menuCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "load parent menu")
	}
	if existing, err := cs.menuRepo.GetMenuItem(req.ItemCode); err == nil && existing != nil {
		return nil, errs.Newf(errs.KindConflict, "item code %s already exists", req.ItemCode)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorw("failed to check item code uniqueness", "itemCode", req.ItemCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "check item code uniqueness")
	}
	cs.checkIcon("item", req.ItemCode, req.Icon)

	item := &model.MenuItem{
		ItemCode:           req.ItemCode,
		ItemName:           req.ItemName,
		ItemType:           req.ItemType,
		Url:                req.Url,
		Icon:               req.Icon,
		SortOrder:          req.SortOrder,
		RequiresPermission: req.RequiresPermission,
		MenuCode:           menuCode,
		ParentId:           req.ParentId,
		Status:             model.ItemStatusActive,
	}
	if err := cs.menuRepo.CreateMenuItem(item); err != nil {
		log.Errorw("failed to create menu item", "itemCode", req.ItemCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "create menu item")
	}

	cs.invalidate(ctx)
	log.Infow("menu item created", "menuCode", menuCode, "itemCode", item.ItemCode)
	return item, nil
}

// UpdateMenuItem 更新菜单项
func (cs *CatalogService) UpdateMenuItem(ctx context.Context, itemCode string, req *model.UpdateMenuItemReq) (*model.MenuItem, error) {
	updates := map[string]any{}
	if req.ItemName != nil {
		if strings.TrimSpace(*req.ItemName) == "" {
			return nil, errs.New(errs.KindValidation, "item name cannot be empty")
		}
		updates["item_name"] = *req.ItemName
	}
	if req.ItemType != nil {
		updates["item_type"] = *req.ItemType
	}
	if req.Url != nil {
		updates["url"] = *req.Url
	}
	if req.Icon != nil {
		cs.checkIcon("item", itemCode, *req.Icon)
		updates["icon"] = *req.Icon
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.RequiresPermission != nil {
		updates["requires_permission"] = *req.RequiresPermission
	}
	if req.ParentId != nil {
		updates["parent_id"] = *req.ParentId
	}
	if req.Status != nil {
		if !model.ValidItemStatus(*req.Status) {
			return nil, errs.Newf(errs.KindValidation, "invalid item status %q", *req.Status)
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return cs.getMenuItem(itemCode)
	}

	if err := cs.menuRepo.UpdateMenuItemByItemCode(itemCode, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "menu item %s not found", itemCode)
		}
		log.Errorw("failed to update menu item", "itemCode", itemCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "update menu item")
	}

	cs.invalidate(ctx)
	log.Infow("menu item updated", "itemCode", itemCode)
	return cs.getMenuItem(itemCode)
}

// RetireMenuItem 下线菜单项（软删除）
// 仍引用它的授权在下一次归一化时被剔除，解析结果立即不可见
func (cs *CatalogService) RetireMenuItem(ctx context.Context, itemCode string) error {
	if err := cs.menuRepo.RetireMenuItem(itemCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Newf(errs.KindNotFound, "menu item %s not found", itemCode)
		}
		log.Errorw("failed to retire menu item", "itemCode", itemCode, "error", err)
		return errs.Wrap(err, errs.KindPersistence, "retire menu item")
	}

	cs.invalidate(ctx)
	log.Infow("menu item retired", "itemCode", itemCode)
	return nil
}

func (cs *CatalogService) getMenu(menuCode string) (*model.Menu, error) {
	menu, err := cs.menuRepo.GetMenu(menuCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "menu %s not found", menuCode)
		}
		log.Errorw("failed to load menu", "menuCode", menuCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "load menu")
	}
	return menu, nil
}

func (cs *CatalogService) getMenuItem(itemCode string) (*model.MenuItem, error) {
	item, err := cs.menuRepo.GetMenuItem(itemCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "menu item %s not found", itemCode)
		}
		log.Errorw("failed to load menu item", "itemCode", itemCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "load menu item")
	}
	return item, nil
}

// invalidate 目录写入后清缓存；失败只记日志，定时刷新兜底
func (cs *CatalogService) invalidate(ctx context.Context) {
	if err := cs.loader.Invalidate(ctx); err != nil {
		log.Warnw("failed to invalidate menu catalog cache", "error", err)
	}
}

// checkIcon 未登记的图标渲染时回退到默认图标，写入时仅提示
func (cs *CatalogService) checkIcon(kind, code, icon string) {
	if icon != "" && !navigation.KnownIcon(icon) {
		log.Warnw("icon not registered, navigation will render the fallback",
			"kind", kind, "code", code, "icon", icon)
	}
}
