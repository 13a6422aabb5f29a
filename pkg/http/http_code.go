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

package http

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")

	// Unauthorized 401
	Unauthorized = failed(4401, "Unauthorized")
	InvalidToken = failed(4405, "Invalid token")
	TokenBeEmpty = failed(4406, "Token cannot be empty")
	TokenExpired = failed(4407, "Token is expired")

	// BadRequest 400
	BadRequest = failed(4000, "Bad request")
	NotFound   = failed(4004, "Not found")

	// Forbidden 403
	PermissionDenied = failed(4031, "Permission denied")

	// AccessPending 202 访问快照尚未解析完成
	AccessPending = failed(2021, "Access resolution in progress")
	// AccessUnavailable 503 上游依赖不可用，稍后重试
	AccessUnavailable = failed(5031, "Access resolution temporarily unavailable")

	InternalError = failed(5000, "Internal error, please contact the administrator")

	RoleNotFound           = failed(4041, "Role does not exist")
	RoleAlreadyExist       = failed(4042, "Role already exists")
	RoleCodeImmutable      = failed(4043, "Role code cannot be changed")
	SystemRoleProtected    = failed(4044, "System role cannot be deleted")
	MenuNotFound           = failed(4045, "Menu does not exist")
	MenuItemNotFound       = failed(4046, "Menu item does not exist")
	DraftNotFound          = failed(4047, "Draft does not exist")
	MenuAlreadyExist       = failed(4048, "Menu already exists")
	MenuItemAlreadyExist   = failed(4049, "Menu item already exists")
	InvalidStatusParameter = failed(4052, "Invalid status parameter")
)

var (
	Success = success(200, "Request Success")
)

// failed 构造函数
func failed(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}

// success 构造函数
func success(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}
