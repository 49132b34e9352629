package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/config"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/handler"
	"github.com/nhatro/internal/router"
	"github.com/nhatro/internal/storage"
	"go.uber.org/zap"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("failed to load configuration", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DBDriver, cfg.DSN()); err != nil {
		logging.Fatal("failed to initialize database", zap.Error(err))
	}

	// 可选：根据环境变量确保存在一个管理员账号
	if err := db.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logging.Fatal("failed to ensure admin account", zap.Error(err))
	}

	// 对象存储：未配置 S3 时回退到本地目录
	var store storage.ObjectStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logging.Fatal("failed to initialize object storage", zap.Error(err))
		}
		store = s3Store
		logging.Info("using S3 object storage", zap.String("bucket", cfg.S3Bucket))
	} else {
		store = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
		logging.Info("using local upload storage", zap.String("dir", cfg.UploadDir))
	}

	api := handler.NewAPI(db.DB, store)

	// 设置并运行 Gin 服务器
	r := router.Setup(api, cfg.SessionSecret, logging)
	logging.Info("server listening", zap.String("addr", cfg.Addr()))
	if err := r.Run(cfg.Addr()); err != nil {
		logging.Fatal("failed to run server", zap.Error(err))
	}
}
