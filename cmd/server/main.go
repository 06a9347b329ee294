package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"classbell/config"
	"classbell/internal/alarm"
	"classbell/internal/api/handler"
	"classbell/internal/api/router"
	"classbell/internal/job"
	"classbell/internal/repository"
	"classbell/internal/service"
	"classbell/pkg/clock"
	"classbell/pkg/database"
	"classbell/pkg/jwt"
	applogger "classbell/pkg/logger"
	"classbell/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("timezone", cfg.Reminder.Timezone),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Addr == "" {
		logger.Warn("未配置 Redis，Token 黑名单、限流与跨实例提醒去重将不可用")
	} else if rdb, err = redis.NewClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与跨实例提醒去重将不可用", zap.Error(err))
		rdb = nil
	}

	loc, _ := cfg.Reminder.Location() // Validate 已校验
	clk := clock.System(loc)

	// 5. 提醒调度器：有 Redis 时以 SETNX 去重，否则进程内去重
	var guard alarm.Guard = alarm.NewMemoryGuard()
	var blacklist service.TokenBlacklist
	if rdb != nil {
		guard = rdb
		blacklist = rdb
	}
	scheduler := alarm.NewScheduler(alarm.Options{
		Exact:       cfg.Reminder.ExactAlarms,
		DedupTTL:    cfg.Reminder.DedupTTL,
		FireTimeout: cfg.Reminder.FireTimeout,
		Guard:       guard,
		Clock:       clk,
		Logger:      logger.Named("alarm"),
	})

	// 6. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, jwtMgr, blacklist, scheduler, clk, logger)
	if err != nil {
		logger.Fatal("初始化业务层失败", zap.Error(err))
	}
	scheduler.SetHandler(svc.Reminder.HandleFire)

	// 6.1 恢复全部课程的提醒
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), time.Minute)
	n, err := svc.Reminder.RescheduleAll(restoreCtx)
	restoreCancel()
	switch {
	case errors.Is(err, alarm.ErrExactAlarmUnavailable):
		logger.Warn("精确闹钟已关闭，本实例不发送上课提醒")
	case err != nil:
		logger.Error("恢复提醒失败", zap.Error(err))
	default:
		logger.Info("提醒已恢复", zap.Int("scheduled", n))
	}

	// 7. 定时任务
	var runner *job.Runner
	if cfg.Jobs.Enabled {
		runner, err = job.NewRunner(&cfg.Jobs, loc, svc.Calendar, logger.Named("job"))
		if err != nil {
			logger.Fatal("初始化定时任务失败", zap.Error(err))
		}
		runner.Start()
	}

	// 8. 初始化路由
	checks := map[string]handler.HealthCheck{"db": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = rdb.Ping
	}
	h := handler.NewHandler(svc, checks)
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if runner != nil {
		if err := runner.Stop(ctx); err != nil {
			logger.Warn("定时任务未能按时停止", zap.Error(err))
		}
	}

	// 停止闹钟并等待正在执行的提醒
	scheduler.Stop()

	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
