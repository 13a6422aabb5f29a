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

import (
	"regexp"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
)

// Role 角色表
type Role struct {
	BaseModel
	RoleId       string         `gorm:"column:role_id;not null;uniqueIndex" json:"roleId"`
	RoleCode     string         `gorm:"column:role_code;not null;uniqueIndex" json:"roleCode"` // 创建后不可变，^[A-Z_]+$
	RoleName     string         `gorm:"column:role_name;not null" json:"roleName"`             // 角色名称
	Description  string         `gorm:"column:description" json:"description"`                 // 角色描述
	Status       string         `gorm:"column:status;not null;default:ACTIVE" json:"status"`   // ACTIVE / INACTIVE / SUSPENDED
	IsSystemRole int            `gorm:"column:is_system_role;not null;default:0" json:"isSystemRole"`
	MenuAccess   datatypes.JSON `gorm:"column:menu_access;type:json" json:"menuAccess"` // {menuCode: [itemCode...]}
}

func (r *Role) TableName() string {
	return "t_role"
}

// 角色状态常量
const (
	RoleStatusActive    = "ACTIVE"
	RoleStatusInactive  = "INACTIVE"
	RoleStatusSuspended = "SUSPENDED"
)

// 系统角色标记
const (
	RoleSystem = 1 // 系统内置，禁止删除
	RoleCustom = 0
)

// 内置系统角色
const (
	RoleCodeAdmin        = "ADMIN"
	RoleCodeSalesManager = "SALES_MANAGER"
	RoleCodeSalesRep     = "SALES_REP"
)

var roleCodeRe = regexp.MustCompile(`^[A-Z_]+$`)

// ValidRoleCode 校验角色编码是否符合约定格式
func ValidRoleCode(code string) bool {
	return roleCodeRe.MatchString(code)
}

// ValidRoleStatus 校验状态取值
func ValidRoleStatus(status string) bool {
	switch status {
	case RoleStatusActive, RoleStatusInactive, RoleStatusSuspended:
		return true
	}
	return false
}

// Grants 解码菜单授权列；空列视为空授权
func (r *Role) Grants() (GrantMap, error) {
	if len(r.MenuAccess) == 0 {
		return GrantMap{}, nil
	}
	var gm GrantMap
	if err := sonic.Unmarshal(r.MenuAccess, &gm); err != nil {
		return nil, err
	}
	if gm == nil {
		gm = GrantMap{}
	}
	return gm, nil
}

// SetGrants 编码菜单授权到持久化列
func (r *Role) SetGrants(gm GrantMap) error {
	if gm == nil {
		gm = GrantMap{}
	}
	raw, err := sonic.Marshal(gm)
	if err != nil {
		return err
	}
	r.MenuAccess = raw
	return nil
}

// CreateRoleReq request for creating a role
type CreateRoleReq struct {
	RoleCode    string   `json:"roleCode"`
	RoleName    string   `json:"roleName"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	MenuAccess  GrantMap `json:"menuAccess"`
	DraftId     string   `json:"draftId,omitempty"` // 保存成功后清理对应草稿
}

// UpdateRoleReq request for updating a role; roleCode 不可更新
type UpdateRoleReq struct {
	RoleName    *string   `json:"roleName,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	MenuAccess  *GrantMap `json:"menuAccess,omitempty"`
	DraftId     string    `json:"draftId,omitempty"`
}

// ListRolesReq 角色分页查询参数
type ListRolesReq struct {
	PageNum  int    `json:"pageNum" query:"pageNum"`
	PageSize int    `json:"pageSize" query:"pageSize"`
	Keyword  string `json:"keyword" query:"keyword"`
	Status   string `json:"status" query:"status"`
}

// RoleDraft 角色编辑草稿，中断的编辑会话可凭 draftId 恢复
type RoleDraft struct {
	DraftId    string    `json:"draftId"`
	RoleId     string    `json:"roleId"` // 为空表示新建角色的草稿
	RoleName   string    `json:"roleName"`
	MenuAccess GrantMap  `json:"menuAccess"`
	SavedAt    time.Time `json:"savedAt"`
}

// RolePage 角色分页结果
type RolePage struct {
	Data          []Role `json:"data"`
	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
}
