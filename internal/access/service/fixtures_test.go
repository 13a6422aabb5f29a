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
	"sync"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeMenuStore 内存版菜单仓储
type fakeMenuStore struct {
	mu    sync.Mutex
	menus map[string]model.Menu
	items map[string]model.MenuItem
	fail  error
}

func newFakeMenuStore() *fakeMenuStore {
	return &fakeMenuStore{
		menus: map[string]model.Menu{},
		items: map[string]model.MenuItem{},
	}
}

// seededMenuStore 目录夹具：SALES{CONTACTS, DEALS}、MARKETING{CAMPAIGNS}
func seededMenuStore() *fakeMenuStore {
	f := newFakeMenuStore()
	f.menus["SALES"] = model.Menu{MenuCode: "SALES", MenuName: "Sales", Icon: "briefcase", SortOrder: 1}
	f.menus["MARKETING"] = model.Menu{MenuCode: "MARKETING", MenuName: "Marketing", Icon: "megaphone", SortOrder: 2}
	f.items["CONTACTS"] = model.MenuItem{
		ItemCode: "CONTACTS", ItemName: "Contacts", Url: "/sales/contacts",
		Icon: "users", SortOrder: 1, MenuCode: "SALES", Status: model.ItemStatusActive,
	}
	f.items["DEALS"] = model.MenuItem{
		ItemCode: "DEALS", ItemName: "Deals", Url: "/sales/deals",
		Icon: "handshake", SortOrder: 2, RequiresPermission: "deal:read",
		MenuCode: "SALES", Status: model.ItemStatusActive,
	}
	f.items["CAMPAIGNS"] = model.MenuItem{
		ItemCode: "CAMPAIGNS", ItemName: "Campaigns", Url: "/marketing/campaigns",
		SortOrder: 1, MenuCode: "MARKETING", Status: model.ItemStatusActive,
	}
	return f
}

func (f *fakeMenuStore) CreateMenu(menu *model.Menu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.menus[menu.MenuCode] = *menu
	return nil
}

func (f *fakeMenuStore) GetMenu(menuCode string) (*model.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	menu, ok := f.menus[menuCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &menu, nil
}

func (f *fakeMenuStore) GetAllMenus() ([]model.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	menus := make([]model.Menu, 0, len(f.menus))
	for _, m := range f.menus {
		menus = append(menus, m)
	}
	return menus, nil
}

func (f *fakeMenuStore) UpdateMenuByMenuCode(menuCode string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	menu, ok := f.menus[menuCode]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["menu_name"]; ok {
		menu.MenuName = v.(string)
	}
	if v, ok := updates["description"]; ok {
		menu.Description = v.(string)
	}
	if v, ok := updates["icon"]; ok {
		menu.Icon = v.(string)
	}
	if v, ok := updates["sort_order"]; ok {
		menu.SortOrder = v.(int)
	}
	f.menus[menuCode] = menu
	return nil
}

func (f *fakeMenuStore) DeleteMenuWithItems(menuCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.menus[menuCode]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.menus, menuCode)
	for code, item := range f.items {
		if item.MenuCode == menuCode {
			delete(f.items, code)
		}
	}
	return nil
}

func (f *fakeMenuStore) CreateMenuItem(item *model.MenuItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.items[item.ItemCode] = *item
	return nil
}

func (f *fakeMenuStore) GetMenuItem(itemCode string) (*model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	item, ok := f.items[itemCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (f *fakeMenuStore) GetMenuItemsByMenuCode(menuCode string) ([]model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var items []model.MenuItem
	for _, item := range f.items {
		if item.MenuCode == menuCode && item.Status == model.ItemStatusActive {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeMenuStore) GetAllMenuItems() ([]model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var items []model.MenuItem
	for _, item := range f.items {
		if item.Status == model.ItemStatusActive {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeMenuStore) UpdateMenuItemByItemCode(itemCode string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	item, ok := f.items[itemCode]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["item_name"]; ok {
		item.ItemName = v.(string)
	}
	if v, ok := updates["item_type"]; ok {
		item.ItemType = v.(string)
	}
	if v, ok := updates["url"]; ok {
		item.Url = v.(string)
	}
	if v, ok := updates["icon"]; ok {
		item.Icon = v.(string)
	}
	if v, ok := updates["sort_order"]; ok {
		item.SortOrder = v.(int)
	}
	if v, ok := updates["requires_permission"]; ok {
		item.RequiresPermission = v.(string)
	}
	if v, ok := updates["parent_id"]; ok {
		item.ParentId = v.(string)
	}
	if v, ok := updates["status"]; ok {
		item.Status = v.(string)
	}
	f.items[itemCode] = item
	return nil
}

func (f *fakeMenuStore) RetireMenuItem(itemCode string) error {
	return f.UpdateMenuItemByItemCode(itemCode, map[string]any{"status": model.ItemStatusInactive})
}

// fakeRoleStore 内存版角色仓储
type fakeRoleStore struct {
	mu      sync.Mutex
	byId    map[string]model.Role
	created []string // 创建顺序，分页测试用
	fail    error
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{byId: map[string]model.Role{}}
}

func (f *fakeRoleStore) CreateRole(role *model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.byId[role.RoleId] = *role
	f.created = append(f.created, role.RoleId)
	return nil
}

func (f *fakeRoleStore) GetRole(roleId string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	role, ok := f.byId[roleId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &role, nil
}

func (f *fakeRoleStore) GetRoleByCode(roleCode string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	for _, role := range f.byId {
		if role.RoleCode == roleCode {
			r := role
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoleStore) GetActiveRolesByCodes(roleCodes []string) ([]model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var roles []model.Role
	for _, code := range roleCodes {
		for _, role := range f.byId {
			if role.RoleCode == code && role.Status == model.RoleStatusActive {
				roles = append(roles, role)
			}
		}
	}
	return roles, nil
}

func (f *fakeRoleStore) ListRoles(req *model.ListRolesReq) ([]model.Role, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, 0, f.fail
	}
	var matched []model.Role
	for _, roleId := range f.created {
		role, ok := f.byId[roleId]
		if !ok {
			continue
		}
		if req.Status != "" && role.Status != req.Status {
			continue
		}
		matched = append(matched, role)
	}
	total := int64(len(matched))
	start := (req.PageNum - 1) * req.PageSize
	if start >= len(matched) {
		return []model.Role{}, total, nil
	}
	end := start + req.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeRoleStore) UpdateRoleByRoleId(roleId string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	role, ok := f.byId[roleId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["role_name"]; ok {
		role.RoleName = v.(string)
	}
	if v, ok := updates["description"]; ok {
		role.Description = v.(string)
	}
	if v, ok := updates["status"]; ok {
		role.Status = v.(string)
	}
	if v, ok := updates["menu_access"]; ok {
		role.MenuAccess = v.(datatypes.JSON)
	}
	f.byId[roleId] = role
	return nil
}

func (f *fakeRoleStore) DeleteRoleByRoleId(roleId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.byId[roleId]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byId, roleId)
	return nil
}

// stubIdentity 固定应答的身份服务客户端
type stubIdentity struct {
	mu    sync.Mutex
	codes map[string][]string
	err   error
}

func (s *stubIdentity) RolesOf(_ context.Context, principalId string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.codes[principalId], nil
}

func newTestLoader(menus *fakeMenuStore) *catalog.Loader {
	return catalog.NewLoader(menus, nil, catalog.Config{})
}
