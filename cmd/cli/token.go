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
	"context"
	"errors"
	"fmt"

	"github.com/atriumcrm/atrium/internal/access/conf"
	"github.com/atriumcrm/atrium/internal/access/consts"
	"github.com/atriumcrm/atrium/pkg/cache"
	"github.com/atriumcrm/atrium/pkg/http/jwt"
	"github.com/atriumcrm/atrium/pkg/id"
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/spf13/cobra"
)

var (
	tokenConfigFile string
	tokenPrincipal  string
	tokenRefresh    string
	tokenNoSession  bool
)

// tokenCmd 本地联调用：给指定主体签发令牌并写入会话，
// 不经过上游身份服务就能调通受保护接口
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed token pair for a principal and register its session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken()
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenConfigFile, "conf", "conf.d/config.toml", "conf file path")
	tokenCmd.Flags().StringVar(&tokenPrincipal, "principal", "", "principal id to issue the token for, generated if empty")
	tokenCmd.Flags().StringVar(&tokenRefresh, "refresh", "", "exchange a refresh token instead of minting a fresh pair")
	tokenCmd.Flags().BoolVar(&tokenNoSession, "no-session", false, "skip writing the session key to redis")
}

func runToken() error {
	if tokenPrincipal == "" {
		if tokenRefresh != "" {
			return errors.New("--principal is required when exchanging a refresh token")
		}
		tokenPrincipal = id.GetUUIDWithoutDashes()
	}

	appConf := conf.NewConf(tokenConfigFile)
	if err := log.Init(&appConf.Log); err != nil {
		return err
	}
	auth := appConf.Http.Auth
	if auth.SecretKey == "" {
		return errors.New("http.auth.secretKey is not configured")
	}

	var aToken, rToken string
	if tokenRefresh != "" {
		pair, err := jwt.RefreshToken(&auth, tokenPrincipal, tokenRefresh)
		if err != nil {
			return fmt.Errorf("exchange refresh token: %w", err)
		}
		aToken, rToken = pair["accessToken"], pair["refreshToken"]
	} else {
		var err error
		aToken, rToken, err = jwt.GenToken(tokenPrincipal, []byte(auth.SecretKey), auth.AccessExpire, auth.RefreshExpire)
		if err != nil {
			return fmt.Errorf("sign token pair: %w", err)
		}
	}

	// 认证中间件要求会话键存在，不写的话签出来的令牌会被直接拒绝
	if !tokenNoSession {
		redisClient, err := cache.NewRedis(appConf.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		sessions := cache.NewRedisCache(redisClient)
		key := consts.SessionKey + tokenPrincipal
		if err := sessions.Set(context.Background(), key, "1", auth.AccessExpire).Err(); err != nil {
			return fmt.Errorf("register session %s: %w", key, err)
		}
		log.Infow("session registered", "principalId", tokenPrincipal, "ttl", auth.AccessExpire)
	}

	fmt.Printf("principalId:  %s\n", tokenPrincipal)
	fmt.Printf("accessToken:  %s\n", aToken)
	fmt.Printf("refreshToken: %s\n", rToken)
	return nil
}
