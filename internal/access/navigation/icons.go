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

package navigation

// Icon 图标渲染描述符：稳定的名字加前端样式类
type Icon struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// DefaultIconName 未登记图标的回退项
const DefaultIconName = "circle"

// iconTable 图标名到渲染描述符的固定查找表
// 目录数据引用新图标时必须同步登记，未登记的名字走回退
var iconTable = map[string]Icon{
	"bell":      {Name: "bell", Class: "icon-bell"},
	"briefcase": {Name: "briefcase", Class: "icon-briefcase"},
	"calendar":  {Name: "calendar", Class: "icon-calendar"},
	"chart":     {Name: "chart", Class: "icon-chart"},
	"circle":    {Name: "circle", Class: "icon-circle"},
	"folder":    {Name: "folder", Class: "icon-folder"},
	"gear":      {Name: "gear", Class: "icon-gear"},
	"handshake": {Name: "handshake", Class: "icon-handshake"},
	"home":      {Name: "home", Class: "icon-home"},
	"megaphone": {Name: "megaphone", Class: "icon-megaphone"},
	"users":     {Name: "users", Class: "icon-users"},
}

// ResolveIcon 解析图标名；未知名字回退到 DefaultIconName
func ResolveIcon(name string) Icon {
	if icon, ok := iconTable[name]; ok {
		return icon
	}
	return iconTable[DefaultIconName]
}

// KnownIcon 图标名是否已登记
func KnownIcon(name string) bool {
	_, ok := iconTable[name]
	return ok
}
