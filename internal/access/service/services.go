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

// Services 统一管理所有 service
type Services struct {
	Catalog *CatalogService
	Role    *RoleService
	Access  *AccessService
}

// NewServices 初始化所有 service
func NewServices(catalogService *CatalogService, roleService *RoleService, accessService *AccessService) *Services {
	return &Services{
		Catalog: catalogService,
		Role:    roleService,
		Access:  accessService,
	}
}
