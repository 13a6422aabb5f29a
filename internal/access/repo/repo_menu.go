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

package repo

import (
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/pkg/database"
	"gorm.io/gorm"
)

type IMenuRepository interface {
	CreateMenu(menu *model.Menu) error
	GetMenu(menuCode string) (*model.Menu, error)
	GetAllMenus() ([]model.Menu, error)
	UpdateMenuByMenuCode(menuCode string, updates map[string]any) error
	DeleteMenuWithItems(menuCode string) error

	CreateMenuItem(item *model.MenuItem) error
	GetMenuItem(itemCode string) (*model.MenuItem, error)
	GetMenuItemsByMenuCode(menuCode string) ([]model.MenuItem, error)
	GetAllMenuItems() ([]model.MenuItem, error)
	UpdateMenuItemByItemCode(itemCode string, updates map[string]any) error
	RetireMenuItem(itemCode string) error
}

type MenuRepo struct {
	database.IDatabase
}

func NewMenuRepo(db database.IDatabase) IMenuRepository {
	return &MenuRepo{
		IDatabase: db,
	}
}

// CreateMenu 创建菜单组
func (r *MenuRepo) CreateMenu(menu *model.Menu) error {
	if err := r.Database().Table(menu.TableName()).Create(menu).Error; err != nil {
		return err
	}
	return nil
}

// GetMenu 获取菜单组
func (r *MenuRepo) GetMenu(menuCode string) (*model.Menu, error) {
	var menu model.Menu
	err := r.Database().Select("id", "menu_code", "menu_name", "description", "icon", "sort_order", "created_at", "updated_at").
		Where("menu_code = ?", menuCode).First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// GetAllMenus 获取所有菜单组，目录热路径走只读副本
func (r *MenuRepo) GetAllMenus() ([]model.Menu, error) {
	var menus []model.Menu
	err := database.ReadDB(r.Database()).Select("id", "menu_code", "menu_name", "description", "icon", "sort_order", "created_at", "updated_at").
		Order("sort_order ASC").Find(&menus).Error
	return menus, err
}

// UpdateMenuByMenuCode 更新菜单组
func (r *MenuRepo) UpdateMenuByMenuCode(menuCode string, updates map[string]any) error {
	var menu model.Menu
	result := r.Database().Table(menu.TableName()).Where("menu_code = ?", menuCode).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMenuWithItems 删除菜单组及其全部菜单项，单事务
func (r *MenuRepo) DeleteMenuWithItems(menuCode string) error {
	return r.Database().Transaction(func(tx *gorm.DB) error {
		result := tx.Where("menu_code = ?", menuCode).Delete(&model.Menu{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("menu_code = ?", menuCode).Delete(&model.MenuItem{}).Error
	})
}

// CreateMenuItem 创建菜单项
func (r *MenuRepo) CreateMenuItem(item *model.MenuItem) error {
	if err := r.Database().Table(item.TableName()).Create(item).Error; err != nil {
		return err
	}
	return nil
}

// GetMenuItem 获取菜单项（含已下线项，管理面需要）
func (r *MenuRepo) GetMenuItem(itemCode string) (*model.MenuItem, error) {
	var item model.MenuItem
	err := r.Database().Select("id", "item_code", "item_name", "item_type", "url", "icon", "sort_order", "requires_permission", "menu_code", "parent_id", "status", "created_at", "updated_at").
		Where("item_code = ?", itemCode).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMenuItemsByMenuCode 获取菜单组下所有在线菜单项
func (r *MenuRepo) GetMenuItemsByMenuCode(menuCode string) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := database.ReadDB(r.Database()).Select("id", "item_code", "item_name", "item_type", "url", "icon", "sort_order", "requires_permission", "menu_code", "parent_id", "status", "created_at", "updated_at").
		Where("menu_code = ? AND status = ?", menuCode, model.ItemStatusActive).
		Order("sort_order ASC").Find(&items).Error
	return items, err
}

// GetAllMenuItems 获取全部在线菜单项，目录热路径走只读副本
func (r *MenuRepo) GetAllMenuItems() ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := database.ReadDB(r.Database()).Select("id", "item_code", "item_name", "item_type", "url", "icon", "sort_order", "requires_permission", "menu_code", "parent_id", "status", "created_at", "updated_at").
		Where("status = ?", model.ItemStatusActive).
		Order("sort_order ASC").Find(&items).Error
	return items, err
}

// UpdateMenuItemByItemCode 更新菜单项
func (r *MenuRepo) UpdateMenuItemByItemCode(itemCode string, updates map[string]any) error {
	var item model.MenuItem
	result := r.Database().Table(item.TableName()).Where("item_code = ?", itemCode).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RetireMenuItem 下线菜单项（软删除，设置status=INACTIVE）
// 仍被授权引用的已下线项会在下一次授权归一化时被剔除
func (r *MenuRepo) RetireMenuItem(itemCode string) error {
	var item model.MenuItem
	updates := map[string]any{
		"status": model.ItemStatusInactive,
	}
	result := r.Database().Table(item.TableName()).Where("item_code = ?", itemCode).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
