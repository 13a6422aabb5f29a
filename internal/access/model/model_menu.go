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

package model

// Menu 菜单组表
type Menu struct {
	BaseModel
	MenuCode    string `gorm:"column:menu_code;not null;uniqueIndex" json:"menuCode"` // 菜单组唯一标识
	MenuName    string `gorm:"column:menu_name;not null" json:"menuName"`             // 菜单组名称
	Description string `gorm:"column:description" json:"description"`                 // 菜单组描述
	Icon        string `gorm:"column:icon" json:"icon"`                               // 图标标识
	SortOrder   int    `gorm:"column:sort_order;default:0" json:"sortOrder"`          // 排序（数值越小越靠前）
}

func (Menu) TableName() string {
	return "t_menu"
}

// MenuItem 菜单项表，菜单项归属于某个菜单组
type MenuItem struct {
	BaseModel
	ItemCode           string `gorm:"column:item_code;not null;uniqueIndex" json:"itemCode"`       // 菜单项唯一标识
	ItemName           string `gorm:"column:item_name;not null" json:"itemName"`                   // 菜单项名称
	ItemType           string `gorm:"column:item_type" json:"itemType"`                            // 菜单项类型
	Url                string `gorm:"column:url" json:"url"`                                       // 路由路径
	Icon               string `gorm:"column:icon" json:"icon"`                                     // 图标标识
	SortOrder          int    `gorm:"column:sort_order;default:0" json:"sortOrder"`                // 排序（数值越小越靠前）
	RequiresPermission string `gorm:"column:requires_permission" json:"requiresPermission"`        // 细粒度权限码，可见性之外的独立门禁
	MenuCode           string `gorm:"column:menu_code;not null;index" json:"menuCode"`             // 所属菜单组
	ParentId           string `gorm:"column:parent_id;index" json:"parentId"`                      // 父菜单项（为空表示顶级项）
	Status             string `gorm:"column:status;not null;default:ACTIVE" json:"status"`         // ACTIVE / INACTIVE
}

func (MenuItem) TableName() string {
	return "t_menu_item"
}

// 菜单项状态常量
const (
	ItemStatusActive   = "ACTIVE"
	ItemStatusInactive = "INACTIVE"
)

// 内置设置菜单项；管理接口以自身的目录项作路由守卫
const (
	ItemCodeRoleAdmin = "ROLES"
	ItemCodeMenuAdmin = "MENUS"

	PermRoleManage = "role:manage"
	PermMenuManage = "menu:manage"
)

// ValidItemStatus 校验菜单项状态取值
func ValidItemStatus(status string) bool {
	return status == ItemStatusActive || status == ItemStatusInactive
}

// MenuGroup 菜单组及其有序菜单项，目录树的传输结构
type MenuGroup struct {
	Menu
	Items []MenuItem `json:"items"`
}

// CreateMenuReq request for creating a menu group
type CreateMenuReq struct {
	MenuCode    string `json:"menuCode"`
	MenuName    string `json:"menuName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sortOrder"`
}

// UpdateMenuReq request for updating a menu group
type UpdateMenuReq struct {
	MenuName    *string `json:"menuName,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// CreateMenuItemReq request for creating a menu item under a menu group
type CreateMenuItemReq struct {
	ItemCode           string `json:"itemCode"`
	ItemName           string `json:"itemName"`
	ItemType           string `json:"itemType"`
	Url                string `json:"url"`
	Icon               string `json:"icon"`
	SortOrder          int    `json:"sortOrder"`
	RequiresPermission string `json:"requiresPermission"`
	ParentId           string `json:"parentId"`
}

// UpdateMenuItemReq request for updating a menu item
type UpdateMenuItemReq struct {
	ItemName           *string `json:"itemName,omitempty"`
	ItemType           *string `json:"itemType,omitempty"`
	Url                *string `json:"url,omitempty"`
	Icon               *string `json:"icon,omitempty"`
	SortOrder          *int    `json:"sortOrder,omitempty"`
	RequiresPermission *string `json:"requiresPermission,omitempty"`
	ParentId           *string `json:"parentId,omitempty"`
	Status             *string `json:"status,omitempty"`
}
