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
	"time"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/internal/access/repo"
	"github.com/atriumcrm/atrium/internal/access/selection"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/id"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// draftTTL 草稿保留时长，过期后中断的编辑会话不可恢复
const draftTTL = 24 * time.Hour

// RoleService 角色管理服务
//
// 写入前一律重新归一化授权：目录外引用剔除、空集键删除，
// 保证落库数据满足「授权 ⊆ 目录」。
type RoleService struct {
	roleRepo repo.IRoleRepository
	loader   *catalog.Loader
	cache    cache.ICache
}

func NewRoleService(roleRepo repo.IRoleRepository, loader *catalog.Loader, cache cache.ICache) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		loader:   loader,
		cache:    cache,
	}
}

// normalizeGrants 把客户端提交的授权送回选择引擎归一化
func (rs *RoleService) normalizeGrants(ctx context.Context, gm model.GrantMap) (model.GrantMap, error) {
	ix, err := rs.loader.GetIndex(ctx)
	if err != nil {
		log.Errorw("failed to load menu catalog for grant normalization", "error", err)
		return nil, errs.Wrap(err, errs.KindNetwork, "load menu catalog")
	}
	ed := selection.NewEditor()
	ed.SetCatalog(ix)
	ed.SetGrants(gm)
	return ed.Grants(), nil
}

// CreateRoleWithMenuAccess 创建角色及其菜单授权
func (rs *RoleService) CreateRoleWithMenuAccess(ctx context.Context, req *model.CreateRoleReq) (*model.Role, error) {
	if !model.ValidRoleCode(req.RoleCode) {
		return nil, errs.Newf(errs.KindValidation, "invalid role code %q, want ^[A-Z_]+$", req.RoleCode)
	}
	if strings.TrimSpace(req.RoleName) == "" {
		return nil, errs.New(errs.KindValidation, "role name is required")
	}
	status := req.Status
	if status == "" {
		status = model.RoleStatusActive
	}
	if !model.ValidRoleStatus(status) {
		return nil, errs.Newf(errs.KindValidation, "invalid role status %q", status)
	}

	if existing, err := rs.roleRepo.GetRoleByCode(req.RoleCode); err == nil && existing != nil {
		return nil, errs.Newf(errs.KindConflict, "role code %s already exists", req.RoleCode)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorw("failed to check role code uniqueness", "roleCode", req.RoleCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "check role code uniqueness")
	}

	grants, err := rs.normalizeGrants(ctx, req.MenuAccess)
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		RoleId:       id.GetUUID(),
		RoleCode:     req.RoleCode,
		RoleName:     req.RoleName,
		Description:  req.Description,
		Status:       status,
		IsSystemRole: model.RoleCustom,
	}
	if err := role.SetGrants(grants); err != nil {
		log.Errorw("failed to encode menu access", "roleCode", req.RoleCode, "error", err)
		return nil, errs.Wrap(err, errs.KindValidation, "encode menu access")
	}

	if err := rs.roleRepo.CreateRole(role); err != nil {
		log.Errorw("failed to create role", "roleCode", req.RoleCode, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "create role")
	}

	// 保存失败会保留草稿供重试，只有落库成功才清理
	rs.dropDraft(ctx, req.DraftId)

	log.Infow("role created", "roleId", role.RoleId, "roleCode", role.RoleCode,
		"menus", grants.SelectedMenus(), "items", grants.ItemCount())
	return role, nil
}

// UpdateRoleWithMenuAccess 更新角色；roleCode 创建后不可变更
func (rs *RoleService) UpdateRoleWithMenuAccess(ctx context.Context, roleId string, req *model.UpdateRoleReq) (*model.Role, error) {
	role, err := rs.roleRepo.GetRole(roleId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "role %s not found", roleId)
		}
		log.Errorw("failed to load role", "roleId", roleId, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "load role")
	}

	updates := map[string]any{}
	if req.RoleName != nil {
		if strings.TrimSpace(*req.RoleName) == "" {
			return nil, errs.New(errs.KindValidation, "role name cannot be empty")
		}
		updates["role_name"] = *req.RoleName
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !model.ValidRoleStatus(*req.Status) {
			return nil, errs.Newf(errs.KindValidation, "invalid role status %q", *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.MenuAccess != nil {
		grants, err := rs.normalizeGrants(ctx, *req.MenuAccess)
		if err != nil {
			return nil, err
		}
		if err := role.SetGrants(grants); err != nil {
			log.Errorw("failed to encode menu access", "roleId", roleId, "error", err)
			return nil, errs.Wrap(err, errs.KindValidation, "encode menu access")
		}
		updates["menu_access"] = role.MenuAccess
	}
	if len(updates) == 0 {
		return role, nil
	}

	if err := rs.roleRepo.UpdateRoleByRoleId(roleId, updates); err != nil {
		log.Errorw("failed to update role", "roleId", roleId, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "update role")
	}

	rs.dropDraft(ctx, req.DraftId)

	updated, err := rs.roleRepo.GetRole(roleId)
	if err != nil {
		log.Errorw("failed to reload role after update", "roleId", roleId, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "reload role")
	}
	log.Infow("role updated", "roleId", roleId, "roleCode", updated.RoleCode)
	return updated, nil
}

// GetRole 加载角色供编辑；NOT_FOUND 时编辑器回退到空默认值
func (rs *RoleService) GetRole(roleId string) (*model.Role, error) {
	role, err := rs.roleRepo.GetRole(roleId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.KindNotFound, "role %s not found", roleId)
		}
		log.Errorw("failed to load role", "roleId", roleId, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "load role")
	}
	return role, nil
}

// GetRolesPaginated 分页查询角色
func (rs *RoleService) GetRolesPaginated(req *model.ListRolesReq) (*model.RolePage, error) {
	if req.PageNum <= 0 {
		req.PageNum = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}
	if req.Status != "" && !model.ValidRoleStatus(req.Status) {
		return nil, errs.Newf(errs.KindValidation, "invalid role status %q", req.Status)
	}

	roles, total, err := rs.roleRepo.ListRoles(req)
	if err != nil {
		log.Errorw("failed to list roles", "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "list roles")
	}

	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	return &model.RolePage{
		Data:          roles,
		Page:          req.PageNum,
		PageSize:      req.PageSize,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// UpdateRoleStatus 变更角色状态
func (rs *RoleService) UpdateRoleStatus(roleId, status string) error {
	if !model.ValidRoleStatus(status) {
		return errs.Newf(errs.KindValidation, "invalid role status %q", status)
	}
	if err := rs.roleRepo.UpdateRoleByRoleId(roleId, map[string]any{"status": status}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Newf(errs.KindNotFound, "role %s not found", roleId)
		}
		log.Errorw("failed to update role status", "roleId", roleId, "status", status, "error", err)
		return errs.Wrap(err, errs.KindPersistence, "update role status")
	}
	log.Infow("role status updated", "roleId", roleId, "status", status)
	return nil
}

// DeleteRole 删除角色；系统内置角色禁止删除
func (rs *RoleService) DeleteRole(roleId string) error {
	role, err := rs.roleRepo.GetRole(roleId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Newf(errs.KindNotFound, "role %s not found", roleId)
		}
		log.Errorw("failed to load role", "roleId", roleId, "error", err)
		return errs.Wrap(err, errs.KindPersistence, "load role")
	}
	if role.IsSystemRole == model.RoleSystem {
		return errs.Newf(errs.KindValidation, "system role %s cannot be deleted", role.RoleCode)
	}

	if err := rs.roleRepo.DeleteRoleByRoleId(roleId); err != nil {
		log.Errorw("failed to delete role", "roleId", roleId, "error", err)
		return errs.Wrap(err, errs.KindPersistence, "delete role")
	}
	log.Infow("role deleted", "roleId", roleId, "roleCode", role.RoleCode)
	return nil
}

// SaveDraft 保存编辑草稿；draftId 为空时生成新草稿
// 只做形状归一化（空集键删除），目录剪裁留给恢复时的编辑器重算
func (rs *RoleService) SaveDraft(ctx context.Context, draft *model.RoleDraft) (*model.RoleDraft, error) {
	if rs.cache == nil {
		return nil, errs.New(errs.KindUnknown, "draft store is not configured")
	}
	if draft.DraftId == "" {
		draft.DraftId = id.ShortId()
	}
	draft.MenuAccess = draft.MenuAccess.Normalize()
	draft.SavedAt = time.Now()

	raw, err := sonic.MarshalString(draft)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindValidation, "encode role draft")
	}
	if err := rs.cache.Set(ctx, consts.DraftKey+draft.DraftId, raw, draftTTL).Err(); err != nil {
		log.Errorw("failed to save role draft", "draftId", draft.DraftId, "error", err)
		return nil, errs.Wrap(err, errs.KindPersistence, "save role draft")
	}
	return draft, nil
}

// GetDraft 恢复编辑草稿
func (rs *RoleService) GetDraft(ctx context.Context, draftId string) (*model.RoleDraft, error) {
	if rs.cache == nil {
		return nil, errs.New(errs.KindUnknown, "draft store is not configured")
	}
	raw, err := rs.cache.Get(ctx, consts.DraftKey+draftId).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Errorw("failed to load role draft", "draftId", draftId, "error", err)
		return nil, errs.Wrap(err, errs.KindNetwork, "load role draft")
	}
	if raw == "" {
		return nil, errs.Newf(errs.KindNotFound, "draft %s not found or expired", draftId)
	}

	var draft model.RoleDraft
	if err := sonic.UnmarshalString(raw, &draft); err != nil {
		log.Warnw("discarding undecodable role draft", "draftId", draftId, "error", err)
		rs.cache.Del(ctx, consts.DraftKey+draftId)
		return nil, errs.Newf(errs.KindNotFound, "draft %s not found or expired", draftId)
	}
	return &draft, nil
}

// DeleteDraft 丢弃编辑草稿
func (rs *RoleService) DeleteDraft(ctx context.Context, draftId string) error {
	if rs.cache == nil {
		return nil
	}
	if err := rs.cache.Del(ctx, consts.DraftKey+draftId).Err(); err != nil {
		log.Errorw("failed to delete role draft", "draftId", draftId, "error", err)
		return errs.Wrap(err, errs.KindNetwork, "delete role draft")
	}
	return nil
}

// dropDraft 保存成功后的草稿清理，尽力而为
func (rs *RoleService) dropDraft(ctx context.Context, draftId string) {
	if draftId == "" || rs.cache == nil {
		return
	}
	if err := rs.cache.Del(ctx, consts.DraftKey+draftId).Err(); err != nil {
		log.Warnw("failed to clean up role draft after save", "draftId", draftId, "error", err)
	}
}
