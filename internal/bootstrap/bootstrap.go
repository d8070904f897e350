package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/notesphere/notesphere/internal/app/controllers"
	"github.com/notesphere/notesphere/internal/app/models"
	appRepos "github.com/notesphere/notesphere/internal/app/repositories"
	appRoutes "github.com/notesphere/notesphere/internal/app/routes"
	appServices "github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/config"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/health"
	appMiddleware "github.com/notesphere/notesphere/internal/middleware"
	pkgAuth "github.com/notesphere/notesphere/internal/pkg/auth"
	"github.com/notesphere/notesphere/internal/pkg/cache"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/lock"
	"github.com/notesphere/notesphere/internal/pkg/logger"
	"github.com/notesphere/notesphere/internal/pkg/ratelimit"
	"github.com/notesphere/notesphere/internal/pkg/validation"
	"github.com/notesphere/notesphere/internal/seed"
)

// configPathEnv overrides the default config file location
const configPathEnv = "CONFIG_PATH"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *appRepos.Repositories
	Redis       *redis.Client // nil when Redis is not configured
	Storage     filestorage.Provider
	Monitor     *health.Monitor // nil when dependency monitoring is disabled
	Readiness   *health.Readiness
	Sweeper     appServices.SweeperService
	Catalog     appServices.CatalogService
	Users       appServices.UserService
	Controllers appRoutes.Controllers

	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger

	monitorRunning bool
}

// StartBackground starts dependency monitoring, when enabled
func (d *Dependencies) StartBackground(ctx context.Context) error {
	if d.Monitor == nil {
		return nil
	}
	if err := d.Monitor.Start(ctx); err != nil {
		return err
	}
	d.monitorRunning = true
	return nil
}

// Close releases the connections opened by BuildDependencies
func (d *Dependencies) Close() {
	if d.monitorRunning {
		d.Monitor.Stop()
		d.monitorRunning = false
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		configPath = filepath.Join("configs", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if !cfg.Database.AutoMigrate {
		lgr.Info().Msg("Automatic migrations disabled, skipping.")
		return database, nil
	}

	lgr.Info().Msg("Running database migrations...")
	if err := db.Migrate(cfg.GetMigrationURL()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupRedis connects to Redis. It returns nil when no address is configured;
// the API then runs without the sweep lock and like rate limiting.
func SetupRedis(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		lgr.Warn().Msg("Redis address not configured, running without distributed lock and rate limiting")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established.")
	return client, nil
}

// SetupStorage builds the configured remote file provider
func SetupStorage(ctx context.Context, cfg *config.Config, tokens filestorage.TokenStore, lgr zerolog.Logger) (filestorage.Provider, error) {
	timeout := helpers.ParseDuration(cfg.Storage.Timeout, 30*time.Second)

	switch cfg.Storage.Provider {
	case config.StorageProviderMinio:
		provider, err := filestorage.NewMinioProvider(filestorage.MinioConfig{
			Endpoint:      cfg.Minio.Endpoint,
			AccessKey:     cfg.Minio.AccessKey,
			SecretKey:     cfg.Minio.SecretKey,
			Bucket:        cfg.Minio.Bucket,
			Region:        cfg.Minio.Region,
			UseSSL:        cfg.Minio.UseSSL,
			PresignExpiry: helpers.ParseDuration(cfg.Minio.PresignExpiry, 15*time.Minute),
		})
		if err != nil {
			return nil, err
		}
		bucketCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := provider.EnsureBucket(bucketCtx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %q: %w", cfg.Minio.Bucket, err)
		}
		lgr.Info().Str("endpoint", cfg.Minio.Endpoint).Str("bucket", cfg.Minio.Bucket).Msg("Using MinIO file storage")
		return provider, nil

	default:
		provider := filestorage.NewDriveProvider(filestorage.DriveConfig{
			ClientID:            cfg.Google.ClientID,
			ClientSecret:        cfg.Google.ClientSecret,
			RedirectURI:         cfg.Google.RedirectURI,
			RefreshToken:        cfg.Google.RefreshToken,
			AccessToken:         cfg.Google.AccessToken,
			ServiceAccountEmail: cfg.Google.ServiceAccountEmail,
			PrivateKey:          cfg.Google.PrivateKey,
			FolderID:            cfg.Google.FolderID,
			ShareWithLink:       cfg.Google.ShareWithLink,
			APIBaseURL:          cfg.Google.APIBaseURL,
			UploadBaseURL:       cfg.Google.UploadBaseURL,
			Timeout:             timeout,
		}, tokens)
		lgr.Info().Str("folder", cfg.Google.FolderID).Msg("Using Google Drive file storage")
		return provider, nil
	}
}

// NewSweeper builds the rejected-note sweeper shared by the API and the CLI
func NewSweeper(cfg *config.Config, repos *appRepos.Repositories, storage filestorage.Provider, redisClient *redis.Client) appServices.SweeperService {
	var locker lock.Locker = lock.NoopLocker{}
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Redis.Prefix+":lock")
	}
	return appServices.NewSweeperService(
		repos.NoteRepository,
		storage,
		locker,
		helpers.ParseDuration(cfg.Sweeper.RejectedTTL, 48*time.Hour),
		helpers.ParseDuration(cfg.Sweeper.LockTTL, 10*time.Minute),
		helpers.ParseDuration(cfg.Sweeper.RemoteDeleteTimeout, 10*time.Second),
	)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database)

	var err error
	deps.Redis, err = SetupRedis(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	deps.Storage, err = SetupStorage(ctx, cfg, deps.Repos.UserAuthRepository, lgr)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	var limiter appServices.RateLimiter
	if deps.Redis != nil {
		l, err := ratelimit.NewFixedWindowLimiter(deps.Redis, cfg.Redis.Prefix+":ratelimit",
			cfg.RateLimit.LikesPerWindow, helpers.ParseDuration(cfg.RateLimit.Window, time.Minute))
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		limiter = l
	}

	// Caches
	treeCache := cache.New[[]*models.Year]("catalog", cfg.Cache.CatalogSize, helpers.ParseDuration(cfg.Cache.CatalogTTL, 5*time.Minute))
	userCache := cache.New[*models.User]("users", cfg.Cache.UserSize, helpers.ParseDuration(cfg.Cache.UserTTL, time.Minute))

	// Services
	rejectedTTL := helpers.ParseDuration(cfg.Sweeper.RejectedTTL, 48*time.Hour)
	repos := deps.Repos

	deps.Catalog = appServices.NewCatalogService(repos.YearRepository, repos.SemesterRepository, repos.SubjectRepository, treeCache)
	deps.Users = appServices.NewUserService(repos.UserRepository, userCache, cfg.Auth.AdminBootstrapID)
	deps.Sweeper = NewSweeper(cfg, repos, deps.Storage, deps.Redis)

	noteService := appServices.NewNoteService(repos.NoteRepository, repos.SubjectRepository, deps.Storage)
	moderationService := appServices.NewModerationService(repos.NoteRepository, repos.RejectedNoteRepository, rejectedTTL, nil)
	stateSigner := pkgAuth.NewStateSigner(cfg.Auth.StateSecret, helpers.ParseDuration(cfg.Auth.StateTTL, 10*time.Minute), "notesphere")
	uploadService := appServices.NewUploadService(deps.Storage, repos.UserAuthRepository, stateSigner, cfg.App.BaseURL)
	likeService := appServices.NewLikeService(repos.LikeRepository, repos.NoteRepository, repos.NoticeRepository, limiter)
	commentService := appServices.NewCommentService(repos.CommentRepository, repos.NoteRepository, repos.NoticeRepository)
	noticeService := appServices.NewNoticeService(repos.NoticeRepository)
	feedbackService := appServices.NewFeedbackService(repos.FeedbackRepository)
	statsService := appServices.NewStatsService(repos.UserRepository, repos.NoteRepository, repos.RejectedNoteRepository, repos.NoticeRepository, repos.FeedbackRepository)

	SeedCatalog(ctx, cfg, deps.Catalog, lgr)

	// Authentication
	verifier, err := pkgAuth.NewIdentityVerifier(pkgAuth.IdentityConfig{
		JWKSURL:         cfg.Auth.JWKSURL,
		Issuer:          cfg.Auth.Issuer,
		Leeway:          helpers.ParseDuration(cfg.Auth.Leeway, 30*time.Second),
		RefreshInterval: helpers.ParseDuration(cfg.Auth.JWKSRefresh, time.Hour),
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(verifier, deps.Users, cfg.Auth.SchedulerToken)

	// Health
	if cfg.Health.Enabled {
		slogger := slog.New(slog.NewTextHandler(logger.Writer(), nil))
		deps.Monitor, err = health.NewMonitor(health.MonitorConfig{
			ServiceID:     cfg.Health.ServiceID,
			Group:         cfg.Health.Group,
			PostgresURL:   cfg.GetPostgresConnectionString(),
			CheckInterval: helpers.ParseDuration(cfg.Health.CheckInterval, 15*time.Second),
			Registerer:    prometheus.DefaultRegisterer,
		}, stdlib.OpenDBFromPool(database.Pool), slogger)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize dependency monitor: %w", err)
		}
	}

	var monitor health.DependencyHealth
	if deps.Monitor != nil {
		monitor = deps.Monitor
	}
	deps.Readiness = health.NewReadiness(2*time.Second, monitor)
	deps.Readiness.Add("postgres", database.Ping)
	if deps.Redis != nil {
		client := deps.Redis
		deps.Readiness.Add("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	// Controllers
	deps.Controllers = appRoutes.Controllers{
		Catalog:    controllers.NewCatalogController(deps.Catalog),
		Note:       controllers.NewNoteController(noteService, rejectedTTL),
		Moderation: controllers.NewModerationController(moderationService, deps.Sweeper),
		Drive:      controllers.NewDriveController(uploadService),
		Social:     controllers.NewSocialController(likeService, commentService),
		Notice:     controllers.NewNoticeController(noticeService, feedbackService),
		User:       controllers.NewUserController(deps.Users, statsService),
		Health:     controllers.NewHealthController(deps.Readiness),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.Register(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(),
		appMiddleware.Metrics(),
		gin.Recovery(),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}

// SeedCatalog creates the default years and semesters when seed.default_catalog is set.
// Failures are logged and never stop startup.
func SeedCatalog(ctx context.Context, cfg *config.Config, catalog appServices.CatalogService, lgr zerolog.Logger) {
	if !cfg.Seed.DefaultCatalog {
		lgr.Debug().Msg("Default catalog seeding disabled")
		return
	}
	if err := seed.CreateDefaultData(ctx, catalog, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}
