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

type IRoleRepository interface {
	CreateRole(role *model.Role) error
	GetRole(roleId string) (*model.Role, error)
	GetRoleByCode(roleCode string) (*model.Role, error)
	GetActiveRolesByCodes(roleCodes []string) ([]model.Role, error)
	ListRoles(req *model.ListRolesReq) ([]model.Role, int64, error)
	UpdateRoleByRoleId(roleId string, updates map[string]any) error
	DeleteRoleByRoleId(roleId string) error
}

type RoleRepo struct {
	database.IDatabase
}

func NewRoleRepo(db database.IDatabase) IRoleRepository {
	return &RoleRepo{
		IDatabase: db,
	}
}

// CreateRole 创建角色
func (r *RoleRepo) CreateRole(role *model.Role) error {
	if err := r.Database().Table(role.TableName()).Create(role).Error; err != nil {
		return err
	}
	return nil
}

// GetRole 获取角色（不过滤状态，管理面需要编辑停用角色）
func (r *RoleRepo) GetRole(roleId string) (*model.Role, error) {
	var role model.Role
	err := r.Database().Select("id", "role_id", "role_code", "role_name", "description", "status", "is_system_role", "menu_access", "created_at", "updated_at").
		Where("role_id = ?", roleId).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoleByCode 根据角色编码获取角色
func (r *RoleRepo) GetRoleByCode(roleCode string) (*model.Role, error) {
	var role model.Role
	err := r.Database().Select("id", "role_id", "role_code", "role_name", "description", "status", "is_system_role", "menu_access", "created_at", "updated_at").
		Where("role_code = ?", roleCode).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetActiveRolesByCodes 根据角色编码列表获取在用角色
// 运行时解析只统计 ACTIVE 角色的授权，停用/挂起角色不贡献可见性。
// 授权数据必须读主库：管理员改完角色马上触发刷新，走副本可能读到旧授权
func (r *RoleRepo) GetActiveRolesByCodes(roleCodes []string) ([]model.Role, error) {
	if len(roleCodes) == 0 {
		return []model.Role{}, nil
	}
	var roles []model.Role
	err := database.WriteDB(r.Database()).Select("id", "role_id", "role_code", "role_name", "description", "status", "is_system_role", "menu_access", "created_at", "updated_at").
		Where("role_code IN ? AND status = ?", roleCodes, model.RoleStatusActive).
		Find(&roles).Error
	return roles, err
}

// ListRoles 分页列出角色，支持关键字与状态过滤
func (r *RoleRepo) ListRoles(req *model.ListRolesReq) ([]model.Role, int64, error) {
	var roles []model.Role
	var role model.Role
	offset := (req.PageNum - 1) * req.PageSize

	query := r.Database().Table(role.TableName())
	if req.Keyword != "" {
		like := "%" + req.Keyword + "%"
		query = query.Where("role_code LIKE ? OR role_name LIKE ?", like, like)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	count, err := Count(query)
	if err != nil {
		return nil, 0, err
	}

	if err := query.Select("id", "role_id", "role_code", "role_name", "description", "status", "is_system_role", "menu_access", "created_at", "updated_at").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").
		Find(&roles).Error; err != nil {
		return nil, 0, err
	}
	return roles, count, nil
}

// UpdateRoleByRoleId 根据RoleId更新角色
func (r *RoleRepo) UpdateRoleByRoleId(roleId string, updates map[string]any) error {
	var role model.Role
	result := r.Database().Table(role.TableName()).Where("role_id = ?", roleId).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRoleByRoleId 删除角色；系统角色的保护检查在 service 层完成
func (r *RoleRepo) DeleteRoleByRoleId(roleId string) error {
	result := r.Database().Where("role_id = ?", roleId).Delete(&model.Role{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
