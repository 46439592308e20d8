package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/feelins/flask-admin/internal/api/handler"
	"github.com/feelins/flask-admin/internal/api/middleware"
	"github.com/feelins/flask-admin/internal/api/router"
	"github.com/feelins/flask-admin/pkg/metrics"
	"github.com/feelins/flask-admin/pkg/redis"
)

func serveCommand() *cobra.Command {
	var seedFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动管理后台 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := bootstrap(cfg)
			if err != nil {
				return err
			}
			defer a.close()
			return serveRun(cmd.Context(), a, seedFirst)
		},
	}
	cmd.Flags().BoolVar(&seedFirst, "seed", false, "启动前重建表结构并导入示例数据")
	return cmd
}

func serveRun(ctx context.Context, a *app, seedFirst bool) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	if seedFirst {
		if err := runSeed(ctx, a); err != nil {
			return err
		}
	}

	// 连接 Redis（可选：连接失败时降级运行，不启用写操作限流）
	var limiter middleware.RateLimiter
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，写操作限流将不可用", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = rdb
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
	}

	h := handler.NewHandler(cfg, a.admin, a.svc, m, a.sqlDB, logger)
	var verifier middleware.TokenVerifier
	if cfg.Auth.Enabled {
		verifier = a.svc.Auth
	}
	engine, err := router.Setup(cfg, router.Deps{
		Admin:    a.admin,
		Handler:  h,
		Verifier: verifier,
		Limiter:  limiter,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("初始化路由失败: %w", err)
	}

	// 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动",
			zap.String("addr", srv.Addr),
			zap.String("admin", a.admin.IndexURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}
