package provider

import (
	"github.com/payout-ledger/internal/authz"
	"github.com/payout-ledger/internal/cache"
	"github.com/payout-ledger/internal/config"
	"github.com/payout-ledger/internal/logger"
	"github.com/payout-ledger/internal/metrics"
	"github.com/payout-ledger/internal/models"
	"github.com/payout-ledger/internal/queue"
	"github.com/payout-ledger/internal/repository"
	"github.com/payout-ledger/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.LedgerMetrics
	Registry    *prometheus.Registry

	// Repositories
	AdminRepo      repository.AdminRepository
	AuthzAuditRepo repository.AuthzAuditLogRepository
	LoginLogRepo   repository.AdminLoginLogRepository
	LedgerRepo     repository.LedgerRepository
	SettlementRepo repository.SettlementRepository
	DashboardRepo  repository.DashboardRepository

	// Services
	AuthzService      *authz.Service
	AuthzAuditService *service.AuthzAuditService
	LoginLogService   *service.AdminLoginLogService
	AuthService       *service.AuthService
	LedgerService     *service.LedgerService
	SettlementService *service.SettlementService
	DashboardService  *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	registry := prometheus.NewRegistry()
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Registry:    registry,
		Metrics:     metrics.NewLedgerMetrics(registry),
	}

	c.initRepositories(models.DB)
	if err := c.initServices(models.DB); err != nil {
		logger.Errorw("provider_init_services_failed", "error", err)
		panic(err)
	}
	return c
}

// NewContainerWithDB 基于指定连接构建容器（不初始化 Redis 与队列）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	c := &Container{Config: cfg}
	c.initRepositories(db)
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.AuthzAuditRepo = repository.NewAuthzAuditLogRepository(db)
	c.LoginLogRepo = repository.NewAdminLoginLogRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		return err
	}

	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditRepo)
	c.LoginLogService = service.NewAdminLoginLogService(c.LoginLogRepo)
	c.AuthService = service.NewAuthService(c.Config.JWT, c.Config.Security.PasswordPolicy, c.AdminRepo)
	c.LedgerService = service.NewLedgerService(c.LedgerRepo, c.Config.Ledger, c.Metrics)
	c.SettlementService = service.NewSettlementService(c.LedgerRepo, c.SettlementRepo, c.Config.Settlement, c.Metrics)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.Config.Settlement, c.Config.Dashboard)
	return nil
}
