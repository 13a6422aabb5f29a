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

package catalog

import (
	"context"
	"time"

	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/atriumcrm/atrium/internal/access/model"
	"github.com/atriumcrm/atrium/internal/access/repo"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/metrics"
	"github.com/atriumcrm/atrium/pkg/parallel"
)

// Config 目录加载配置
type Config struct {
	RefreshCron string        // 定时回填缓存的 cron 表达式
	CacheTTL    time.Duration // 目录树缓存有效期
}

// SetDefaults 填充缺省值
func (c *Config) SetDefaults() {
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 5m"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
}

// Loader 菜单目录加载器
// 访问核心对目录只读；目录写入方通过 Invalidate 驱动缓存失效
type Loader struct {
	menuRepo repo.IMenuRepository
	tree     *cache.CachedQuery[[]model.MenuGroup]
}

func NewLoader(menuRepo repo.IMenuRepository, c cache.ICache, cfg Config) *Loader {
	cfg.SetDefaults()
	l := &Loader{menuRepo: menuRepo}
	l.tree = cache.NewCachedQuery(
		c,
		func(params ...any) string { return consts.CatalogKey },
		l.loadTree,
		cache.WithTTL[[]model.MenuGroup](cfg.CacheTTL),
		cache.WithLogPrefix[[]model.MenuGroup]("[MenuCatalog]"),
	)
	return l
}

// loadTree 从库里加载整棵目录树，菜单组与菜单项并发读取
func (l *Loader) loadTree(ctx context.Context) ([]model.MenuGroup, error) {
	var (
		menus []model.Menu
		items []model.MenuItem
	)
	g := parallel.GoGroup(ctx)
	g.Go(func(ctx context.Context) error {
		var err error
		if menus, err = l.menuRepo.GetAllMenus(); err != nil {
			return errs.Wrap(err, errs.KindNetwork, "load menus")
		}
		return nil
	})
	g.Go(func(ctx context.Context) error {
		var err error
		if items, err = l.menuRepo.GetAllMenuItems(); err != nil {
			return errs.Wrap(err, errs.KindNetwork, "load menu items")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return BuildIndex(menus, items).Groups(), nil
}

// GetMenuTree 获取目录树，缓存未命中时回源并回填
func (l *Loader) GetMenuTree(ctx context.Context) ([]model.MenuGroup, error) {
	missed := false
	tree, err := l.tree.GetOrSet(ctx, func(ctx context.Context) ([]model.MenuGroup, error) {
		missed = true
		return l.loadTree(ctx)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordCatalogCache(!missed)
	return tree, nil
}

// GetIndex 获取目录索引
func (l *Loader) GetIndex(ctx context.Context) (*Index, error) {
	tree, err := l.GetMenuTree(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIndexFromGroups(tree), nil
}

// Invalidate 目录写入后失效缓存
func (l *Loader) Invalidate(ctx context.Context) error {
	return l.tree.Invalidate(ctx)
}

// Refresh 强制重载目录并回填缓存，由定时任务调用
func (l *Loader) Refresh(ctx context.Context) error {
	if err := l.tree.Invalidate(ctx); err != nil {
		log.Warnw("invalidate catalog cache before refresh", "error", err)
	}
	_, err := l.GetMenuTree(ctx)
	return err
}
