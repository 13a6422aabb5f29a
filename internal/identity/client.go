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

package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/atriumcrm/atrium/internal/access/errs"
	"github.com/go-resty/resty/v2"
)

// Config 身份服务客户端配置
type Config struct {
	BaseUrl string
	Token   string
	Timeout int // 单位秒
}

// SetDefaults 填充缺省值
func (c *Config) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5
	}
}

// IClient 身份协作方：提供主体到角色编码的映射
// 会话签发不在本服务范围内，这里只读取已识别主体持有的角色
type IClient interface {
	RolesOf(ctx context.Context, principalId string) ([]string, error)
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) IClient {
	cfg.SetDefaults()

	client := resty.New()
	client.SetBaseURL(cfg.BaseUrl)
	client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Client{http: client}
}

type rolesRep struct {
	RoleCodes []string `json:"roleCodes"`
}

// RolesOf 查询主体当前持有的角色编码
// 传输失败归为 NETWORK，401/403 归为 ACCESS_DENIED，其余非 2xx 归为 UNKNOWN
func (c *Client) RolesOf(ctx context.Context, principalId string) ([]string, error) {
	var rep rolesRep
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&rep).
		SetPathParam("principalId", principalId).
		Get("/api/v1/principal/{principalId}/roles")
	if err != nil {
		return nil, errs.Wrap(err, errs.KindNetwork, "fetch roles of principal "+principalId)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return rep.RoleCodes, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errs.Newf(errs.KindAccessDenied, "identity service refused principal %s: %s", principalId, resp.Status())
	default:
		return nil, errs.Newf(errs.KindUnknown, "identity service returned %s for principal %s", resp.Status(), principalId)
	}
}
