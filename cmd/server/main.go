package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/crowdfund/internal/catalog"
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/database"
	"github.com/blues/crowdfund/internal/handler"
	"github.com/blues/crowdfund/internal/handoff"
	"github.com/blues/crowdfund/internal/kv"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/recordstore"
	"github.com/blues/crowdfund/internal/router"
	"github.com/blues/crowdfund/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	l, err := logger.NewFromConfig(cfg.Log)
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	// 记录存储不可用时活动仍可发布，只是不带图片
	var (
		imageStore   logic.ImageStore
		imageReader  handoff.ImageReader
		imageDeleter catalog.ImageDeleter
		payloads     task.PayloadStore
	)
	records := recordstore.New(db)
	if err := records.Open(ctx); err != nil {
		logger.Warn("Record store unavailable, images will not be stored: %v", err)
	} else {
		imageStore, imageReader, imageDeleter, payloads = records, records, records, records
	}

	store, err := kv.NewDB(db, cfg.Catalog.QuotaBytes)
	if err != nil {
		logger.Fatal("Failed to initialize catalog storage: %v", err)
	}

	// 淘汰时并发删除图片
	pool, err := ants.NewPool(cfg.Worker.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create worker pool: %v", err)
	}
	defer pool.Release()

	campaigns := catalog.New(store, imageDeleter,
		catalog.WithKey(cfg.Catalog.Key),
		catalog.WithRetainFloor(cfg.Catalog.RetainFloor),
		catalog.WithPool(pool),
	)

	wallets := map[model.CryptoType]string{
		model.CryptoBTC: cfg.Wallets.BTC,
		model.CryptoETH: cfg.Wallets.ETH,
		model.CryptoSOL: cfg.Wallets.SOL,
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := logic.NewSessions()

	// 初始化路由
	r := router.Setup(router.Handlers{
		Campaign: handler.NewCampaignHandler(campaigns, imageReader),
		Wizard: handler.NewWizardHandler(
			sessions,
			logic.NewCampaignLogic(imageStore, campaigns, time.Now),
			logic.NewContributionLogic(wallets, campaigns, time.Now),
		),
	})

	// 启动定时任务
	jobs := []task.Job{task.NewSessionExpiryJob(sessions, cfg.Task.Interval, cfg.Task.SessionIdle)}
	if payloads != nil {
		jobs = append(jobs, task.NewOrphanSweepJob(campaigns, payloads, cfg.Task.Interval))
	}
	tasks, err := task.NewManager(jobs...)
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}
	tasks.Start()
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
