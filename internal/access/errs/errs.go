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

package errs

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind 错误分类，路由守卫与 HTTP 层按分类映射响应
type Kind string

const (
	// KindValidation 请求数据不合法，落库前即被拒绝
	KindValidation Kind = "VALIDATION"
	// KindConflict 唯一编码冲突
	KindConflict Kind = "CONFLICT"
	// KindAccessDenied 主体有效但无权限（零授权或显式拒绝）
	KindAccessDenied Kind = "ACCESS_DENIED"
	// KindNetwork 传输层失败或超时，可重试
	KindNetwork Kind = "NETWORK"
	// KindPersistence 角色写入被拒绝，编辑态保留以便重试
	KindPersistence Kind = "PERSISTENCE_FAILURE"
	// KindNotFound 引用的角色/菜单不存在，编辑器回退到空默认值
	KindNotFound Kind = "NOT_FOUND"
	// KindUnknown 无法归类的失败
	KindUnknown Kind = "UNKNOWN"
)

// kindError 携带分类的错误，兼容 errors.As / errors.Is 链式展开
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() error {
	return e.err
}

// New 创建一个带分类的错误
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, err: errors.New(msg)}
}

// Newf 创建一个带分类的格式化错误
func Newf(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap 为已有错误附加分类与上下文消息；err 为 nil 时返回 nil
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: errors.Wrap(err, msg)}
}

// KindOf 取错误链上最外层的分类；无分类时返回 KindUnknown
func KindOf(err error) Kind {
	var ke *kindError
	if stderrors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsKind 判断错误链上是否带有指定分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
