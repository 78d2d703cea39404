package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/payout-ledger/internal/authz"
	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/constants"
	adminhandlers "github.com/payout-ledger/internal/http/handlers/admin"
	"github.com/payout-ledger/internal/http/handlers/internalapi"
	"github.com/payout-ledger/internal/http/response"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	internalHandler := internalapi.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	settlementRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:settlement_execute", redisPrefix),
		WindowSeconds: cfg.Settlement.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Settlement.RateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	api := r.Group("/api")
	{
		// 管理员接口
		admin := api.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 仅需登录的接口
			session := admin.Group("")
			session.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				session.GET("/me", adminHandler.GetAdminMe)
				session.POST("/logout", adminHandler.AdminLogout)
				session.PUT("/password", adminHandler.UpdateAdminPassword)
				session.GET("/authz/me", adminHandler.GetAuthzMe)
			}

			// 需要 RBAC 授权的接口
			authorized := admin.Group("")
			authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 账本
				authorized.GET("/ledger/entries", adminHandler.ListLedgerEntries)
				authorized.GET("/ledger/entries/:id", adminHandler.GetLedgerEntry)
				authorized.POST("/ledger/adjustments", adminHandler.CreateLedgerAdjustment)

				// 结算
				authorized.GET("/settlements", adminHandler.ListSettlements)
				authorized.GET("/settlements/:id", adminHandler.GetSettlement)
				authorized.POST("/settlements", RateLimitMiddleware(cache.Client(), settlementRule, KeyByAdmin), adminHandler.ExecuteSettlement)
				authorized.POST("/settlements/preview", adminHandler.PreviewSettlement)

				// 仪表盘
				authorized.GET("/dashboard/summary", adminHandler.GetDashboardSummary)
			}

			// 权限管理（仅超级管理员）
			authzGroup := admin.Group("/authz")
			authzGroup.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), SuperAdminMiddleware())
			{
				authzGroup.GET("/roles", adminHandler.ListAuthzRoles)
				authzGroup.GET("/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authzGroup.POST("/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authzGroup.GET("/audit-logs", adminHandler.ListAuthzAuditLogs)
				authzGroup.GET("/login-logs", adminHandler.ListAdminLoginLogs)
				authzGroup.GET("/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}

		// 服务间接口
		internal := api.Group("/internal")
		internal.Use(InternalTokenMiddleware(cfg.InternalAPI.Token))
		{
			internal.POST("/ledger/order-events", internalHandler.PostOrderEvent)
		}
	}

	if cfg.Metrics.Enabled && c.Registry != nil {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 列出可授权的管理端接口，供分配角色策略时参考
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/admin/") || item.Path == "/api/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "system"
	}
	if segments[0] != "admin" || len(segments) == 1 {
		return segments[0]
	}
	return segments[1]
}
