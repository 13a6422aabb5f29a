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

package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/atriumcrm/atrium/internal/access/catalog"
	"github.com/atriumcrm/atrium/internal/access/conf"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/pkg/database"
	"github.com/atriumcrm/atrium/pkg/id"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"sigs.k8s.io/yaml"
)

//go:embed fixtures/seeds.yaml
var defaultSeeds []byte

var (
	seedConfigFile  string
	seedFixturePath string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the schema and load the menu catalog and builtin roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedConfigFile, "conf", "conf.d/config.toml", "conf file path")
	seedCmd.Flags().StringVar(&seedFixturePath, "fixtures", "", "seed fixture file, defaults to the builtin catalog")
}

// menuSeed 菜单组固件，条目随组一起声明
type menuSeed struct {
	model.Menu
	Items []model.MenuItem `json:"items"`
}

// roleSeed 内置角色固件
type roleSeed struct {
	RoleCode    string         `json:"roleCode"`
	RoleName    string         `json:"roleName"`
	Description string         `json:"description"`
	System      bool           `json:"system"`
	MenuAccess  model.GrantMap `json:"menuAccess"`
}

type seedFixture struct {
	Menus []menuSeed `json:"menus"`
	Roles []roleSeed `json:"roles"`
}

func runSeed() error {
	appConf := conf.NewConf(seedConfigFile)
	if err := log.Init(&appConf.Log); err != nil {
		return err
	}

	db, err := database.NewDatabase(appConf.Database)
	if err != nil {
		return err
	}

	database.RegisterModels(&model.Menu{}, &model.MenuItem{}, &model.Role{})
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	raw := defaultSeeds
	if seedFixturePath != "" {
		raw, err = os.ReadFile(seedFixturePath)
		if err != nil {
			return fmt.Errorf("read fixture file: %w", err)
		}
	}

	var fixture seedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("decode fixture file: %w", err)
	}

	if err := seedCatalog(db, fixture.Menus); err != nil {
		return err
	}
	if err := seedRoles(db, fixture.Roles); err != nil {
		return err
	}

	log.Infow("seed complete", "menus", len(fixture.Menus), "roles", len(fixture.Roles))
	return nil
}

func seedCatalog(db *gorm.DB, menus []menuSeed) error {
	for i := range menus {
		menu := menus[i].Menu
		if menu.MenuCode == "" {
			return errors.New("fixture menu without menuCode")
		}

		var existing model.Menu
		err := db.Where("menu_code = ?", menu.MenuCode).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&menu).Error; err != nil {
				return fmt.Errorf("create menu %s: %w", menu.MenuCode, err)
			}
		case err != nil:
			return fmt.Errorf("look up menu %s: %w", menu.MenuCode, err)
		default:
			updates := map[string]any{
				"menu_name":   menu.MenuName,
				"description": menu.Description,
				"icon":        menu.Icon,
				"sort_order":  menu.SortOrder,
			}
			if err := db.Model(&model.Menu{}).Where("menu_code = ?", menu.MenuCode).Updates(updates).Error; err != nil {
				return fmt.Errorf("update menu %s: %w", menu.MenuCode, err)
			}
		}

		for j := range menus[i].Items {
			item := menus[i].Items[j]
			item.MenuCode = menu.MenuCode
			if item.Status == "" {
				item.Status = model.ItemStatusActive
			}
			if err := seedMenuItem(db, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedMenuItem(db *gorm.DB, item model.MenuItem) error {
	if item.ItemCode == "" {
		return fmt.Errorf("fixture item without itemCode in menu %s", item.MenuCode)
	}

	var existing model.MenuItem
	err := db.Where("item_code = ?", item.ItemCode).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("create menu item %s: %w", item.ItemCode, err)
		}
	case err != nil:
		return fmt.Errorf("look up menu item %s: %w", item.ItemCode, err)
	default:
		updates := map[string]any{
			"item_name":           item.ItemName,
			"item_type":           item.ItemType,
			"url":                 item.Url,
			"icon":                item.Icon,
			"sort_order":          item.SortOrder,
			"requires_permission": item.RequiresPermission,
			"menu_code":           item.MenuCode,
			"parent_id":           item.ParentId,
			"status":              item.Status,
		}
		if err := db.Model(&model.MenuItem{}).Where("item_code = ?", item.ItemCode).Updates(updates).Error; err != nil {
			return fmt.Errorf("update menu item %s: %w", item.ItemCode, err)
		}
	}
	return nil
}

// seedRoles 创建内置角色；已存在的角色不覆盖，避免冲掉线上改过的授权
func seedRoles(db *gorm.DB, roles []roleSeed) error {
	var menus []model.Menu
	if err := db.Find(&menus).Error; err != nil {
		return fmt.Errorf("load menus: %w", err)
	}
	var items []model.MenuItem
	if err := db.Find(&items).Error; err != nil {
		return fmt.Errorf("load menu items: %w", err)
	}
	ix := catalog.BuildIndex(menus, items)

	for _, seed := range roles {
		if !model.ValidRoleCode(seed.RoleCode) {
			return fmt.Errorf("fixture role code %q, want ^[A-Z_]+$", seed.RoleCode)
		}

		var existing model.Role
		err := db.Where("role_code = ?", seed.RoleCode).First(&existing).Error
		if err == nil {
			log.Infow("role already present, skipped", "roleCode", seed.RoleCode)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("look up role %s: %w", seed.RoleCode, err)
		}

		systemFlag := model.RoleCustom
		if seed.System {
			systemFlag = model.RoleSystem
		}
		role := model.Role{
			RoleId:       id.GetUUID(),
			RoleCode:     seed.RoleCode,
			RoleName:     seed.RoleName,
			Description:  seed.Description,
			Status:       model.RoleStatusActive,
			IsSystemRole: systemFlag,
		}
		if err := role.SetGrants(ix.Prune(seed.MenuAccess)); err != nil {
			return fmt.Errorf("encode grants of role %s: %w", seed.RoleCode, err)
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("create role %s: %w", seed.RoleCode, err)
		}
		log.Infow("role created", "roleCode", seed.RoleCode, "menus", len(seed.MenuAccess))
	}
	return nil
}
