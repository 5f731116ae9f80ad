package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academy-api/api/swagger"
	"github.com/noah-isme/academy-api/internal/database/migrations"
	"github.com/noah-isme/academy-api/internal/handler"
	"github.com/noah-isme/academy-api/internal/repository"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/cache"
	"github.com/noah-isme/academy-api/pkg/config"
	"github.com/noah-isme/academy-api/pkg/database"
	"github.com/noah-isme/academy-api/pkg/docstore"
	"github.com/noah-isme/academy-api/pkg/jobs"
	"github.com/noah-isme/academy-api/pkg/llm"
	"github.com/noah-isme/academy-api/pkg/logger"
	"github.com/noah-isme/academy-api/pkg/mailbox"
	corsmiddleware "github.com/noah-isme/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academy-api/pkg/middleware/requestid"
	"github.com/noah-isme/academy-api/pkg/observability"
	"github.com/noah-isme/academy-api/pkg/storage"
	"github.com/noah-isme/academy-api/pkg/websocket"
)

// @title Academy API
// @version 1.0.0
// @description Multi-tenant academy management: lectures, exams, notices, billing, quizzes and chat.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	mongoClient, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(closeCtx); err != nil {
			logr.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	objects, err := storage.NewObjectStore(ctx, cfg.ObjectStorage)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	local, err := storage.NewLocalStorage(cfg.Notice.StorageDir)
	if err != nil {
		return fmt.Errorf("notice storage: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	academyRepo := repository.NewAcademyRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	lectureRepo := repository.NewLectureRepository(db)
	examRepo := repository.NewExamRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	classRepo := repository.NewClassRepository(db)
	billRepo := repository.NewBillRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "academy", logr)
	chatRepo := repository.NewChatRepository(mongoClient.Database())
	quizRepo := repository.NewQuizRepository(mongoClient.Database())
	otpRepo := repository.NewOTPRepository(mongoClient.Database())

	for name, ensure := range map[string]func(context.Context) error{
		"chat": chatRepo.EnsureIndexes,
		"quiz": quizRepo.EnsureIndexes,
		"otp":  otpRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	hub := websocket.NewHub(logr)
	go hub.Run(ctx)
	metrics.TrackChatConnections(hub.ClientCount)

	// Services
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, objects, validate, logr, service.UserServiceConfig{
		MaxImageSizeBytes: cfg.Upload.MaxImageSizeBytes,
		AllowedImageExts:  cfg.Upload.AllowedImageExts,
	})
	academySvc := service.NewAcademyService(academyRepo, userRepo, db, validate, logr, cfg.PlatformAdmins)
	registrationSvc := service.NewRegistrationService(registrationRepo, academyRepo, userRepo, db, validate, logr)
	lectureSvc := service.NewLectureService(lectureRepo, userRepo, cacheSvc, validate, logr)
	examSvc := service.NewExamService(examRepo, lectureRepo, validate, logr)
	scoreSvc := service.NewScoreService(examRepo, lectureRepo, userRepo, userRepo, db, validate, logr)
	exportSvc := service.NewExportService(scoreSvc, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, lectureRepo, local, objects, cacheSvc, metrics, db, validate, logr, service.NoticeConfig{
		MaxFileSizeBytes: cfg.Notice.MaxFileSizeBytes,
		StagingMaxAge:    cfg.Notice.StagingMaxAge,
	})
	billSvc := service.NewBillService(classRepo, billRepo, userRepo, db, validate, logr)
	quizSvc := service.NewQuizService(examRepo, quizRepo, lectureRepo, llm.NewQuizGenerator(cfg.LLM, logr), scoreSvc, metrics, db, validate, logr, service.QuizConfig{
		QuestionCount:     cfg.Quiz.QuestionCount,
		PointsPerQuestion: cfg.Quiz.PointsPerQuestion,
		ExamTypeName:      cfg.Quiz.ExamTypeName,
	})
	otpSvc := service.NewOTPService(otpRepo, mailbox.New(cfg.Mailbox, logr), validate, logr, cfg.OTP.TTL)
	chatSvc := service.NewChatService(chatRepo, userRepo, hub, validate, logr)

	reconcile := jobs.NewQueue("notice-reconcile", noticeSvc.Reconcile, jobs.QueueConfig{
		Workers:    cfg.Notice.ReconcileWorkers,
		MaxRetries: cfg.Notice.ReconcileRetries,
		RetryDelay: cfg.Notice.ReconcileDelay,
		Logger:     logr,
	})
	reconcile.Start(ctx)
	defer reconcile.Stop()
	noticeSvc.UseQueue(reconcile)
	if queued, err := noticeSvc.RecoverOrphans(ctx); err != nil {
		logr.Warn("notice orphan recovery failed", zap.Error(err))
	} else if queued > 0 {
		logr.Info("queued orphaned notice directories", zap.Int("count", queued))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinMiddleware())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		User:         handler.NewUserHandler(userSvc),
		Academy:      handler.NewAcademyHandler(academySvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Lecture:      handler.NewLectureHandler(lectureSvc),
		Exam:         handler.NewExamHandler(examSvc, scoreSvc, exportSvc),
		Notice:       handler.NewNoticeHandler(noticeSvc),
		Bill:         handler.NewBillHandler(billSvc),
		Quiz:         handler.NewQuizHandler(quizSvc),
		OTP:          handler.NewOTPHandler(otpSvc),
		Chat:         handler.NewChatHandler(chatSvc, hub, cfg.CORS.AllowedOrigins, logr),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
			"mongo":    mongoClient.Ping,
			"storage":  objects.Ping,
		}),
	}, handler.RouterDeps{
		Tokens:         authSvc,
		Audit:          userRepo,
		Observer:       metrics,
		PlatformAdmins: cfg.PlatformAdmins,
		CacheTTL:       cfg.Cache.TTL,
		Logger:         logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
