package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"seatboard/backend/config"
	"seatboard/backend/internal/api/handler"
	"seatboard/backend/internal/api/router"
	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/repository"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/database"
	"seatboard/backend/pkg/jwt"
	applogger "seatboard/backend/pkg/logger"
	"seatboard/backend/pkg/mongodb"
	"seatboard/backend/pkg/redis"
)

func main() {
	// 0. 本地开发时从 .env 注入环境变量（文件不存在时忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志（时区已在 Validate 中校验）
	loc, err := cfg.Attendance.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载时区失败: %v\n", err)
		os.Exit(1)
	}
	logger, err := applogger.NewLogger(&cfg.Log, loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Attendance.Timezone),
		zap.String("attendance_store", cfg.Attendance.Store),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	repo := repository.NewRepository(db)

	// 3.2 出勤记录存储：默认 PostgreSQL，可切换为 MongoDB
	var mongoClient *mongo.Client
	if cfg.Attendance.Store == config.StoreMongo {
		mongoClient, err = mongodb.NewClient(&cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("MongoDB 连接失败", zap.Error(err))
		}
		coll := mongodb.AttendanceCollection(mongoClient, &cfg.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := repository.EnsureAttendanceIndexes(ctx, coll); err != nil {
			cancel()
			logger.Fatal("创建出勤索引失败", zap.Error(err))
		}
		cancel()
		repo.Attendance = repository.NewAttendanceMongoRepo(coll)
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，候课区与签到限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		repo.WaitingRoom = repository.NewWaitingRoomRepo(rdb)
	}

	// 5. 初始化 JWT 管理器与签到策略
	jwtMgr := jwt.NewManager(&cfg.Auth)
	policy, err := service.NewAttendancePolicy(&cfg.Attendance)
	if err != nil {
		logger.Fatal("加载时区失败", zap.Error(err))
	}
	if err := dto.RegisterValidators(); err != nil {
		logger.Fatal("注册参数校验规则失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	svc := service.NewService(repo, policy, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(ctx)
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
