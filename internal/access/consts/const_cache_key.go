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

package consts

// Redis key 前缀，按域划分，避免多实例间互相覆盖
const (
	// SessionKey 会话存在性检查，key = SessionKey + principalId
	SessionKey = "atrium:session:"

	// SnapshotKey 已解析访问快照，key = SnapshotKey + principalId
	SnapshotKey = "atrium:access:snapshot:"

	// DraftKey 角色编辑草稿，key = DraftKey + draftId
	DraftKey = "atrium:role:draft:"

	// CatalogKey 菜单目录整树缓存
	CatalogKey = "atrium:menu:catalog"
)
