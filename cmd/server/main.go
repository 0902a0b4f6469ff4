package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/config"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/middleware"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/handler"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/mailer"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting quotation workflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.RFQ{},
		&entity.Quotation{},
		&entity.ApprovalRecord{},
		&entity.QuotationRevision{},
		&entity.QuotationComment{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 补充索引
	migrationSQL := []string{
		"CREATE INDEX IF NOT EXISTS idx_quotations_status ON quotations(status)",
		"CREATE INDEX IF NOT EXISTS idx_quotation_approvals_status ON quotation_approvals(status)",
		"CREATE INDEX IF NOT EXISTS idx_quotation_comments_parent ON quotation_comments(parent_comment_id)",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration warning", zap.String("sql", sql), zap.Error(err))
		}
	}

	// Redis：报价单级互斥锁
	redisClient := initRedis(cfg.Redis)
	var locks *lockstore.Store
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, quotation locks disabled", zap.Error(err))
	} else {
		locks = lockstore.New(redisClient, 10*time.Second)
	}

	// 仓库、服务、处理器装配
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, locks)
	if cfg.SMTP.Host != "" {
		services.SetMailer(mailer.NewClient(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From))
	}
	handlers := handler.NewHandlers(services, repos)

	// 定时催办：每天9点提醒积压超过24小时的审批人
	c := cron.New()
	c.AddFunc("0 9 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		services.Approval.SendPendingReminders(ctx, 24*time.Hour)
	})
	c.Start()
	defer c.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{"version": Version, "build_time": BuildTime})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 询价单
		rfqs := authorized.Group("/rfqs")
		{
			rfqs.POST("", h.RFQ.Create)
			rfqs.GET("", h.RFQ.List)
			rfqs.GET("/:id", h.RFQ.Get)
			rfqs.DELETE("/:id", middleware.RequireRole("admin"), h.RFQ.Delete)
		}

		// 用户目录镜像
		authorized.PUT("/users/sync", middleware.RequireRole("admin"), h.RFQ.SyncUsers)

		// 报价单
		quotations := authorized.Group("/quotations")
		{
			quotations.POST("", h.Quotation.Create)
			quotations.GET("", h.Quotation.List)
			quotations.GET("/:id", h.Quotation.Get)
			quotations.POST("/:id/submit", h.Quotation.Submit)
			quotations.GET("/:id/verify", h.Quotation.Verify)
			quotations.POST("/:id/decrypt", h.Quotation.Decrypt)
			quotations.GET("/:id/export", h.Quotation.Export)

			// 审批链
			quotations.GET("/:id/approvals", h.Approval.ListByQuotation)

			// 修订与协商
			quotations.POST("/:id/revisions", h.Revision.CreateRevision)
			quotations.GET("/:id/revisions", h.Revision.ListRevisions)
			quotations.GET("/:id/revisions/compare", h.Revision.Compare)
			quotations.POST("/:id/comments", h.Revision.AddComment)
			quotations.GET("/:id/comments", h.Revision.ListComments)
			quotations.POST("/:id/request-revision", h.Revision.RequestRevision)
		}

		// 审批
		approvals := authorized.Group("/approvals")
		{
			approvals.GET("/pending", h.Approval.ListPending)
			approvals.POST("/:id/decision", h.Approval.Decide)
		}
	}
}
