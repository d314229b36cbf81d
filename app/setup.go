package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/course-week-planner/api"
	"github.com/sahilchouksey/course-week-planner/config"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/router"
	"github.com/sahilchouksey/course-week-planner/services"
	"github.com/sahilchouksey/course-week-planner/services/digitalocean"
	"github.com/sahilchouksey/course-week-planner/utils"
	"github.com/sahilchouksey/course-week-planner/utils/auth"
	"github.com/sahilchouksey/course-week-planner/utils/cache"
	"github.com/sahilchouksey/course-week-planner/utils/middleware"
)

const shutdownTimeout = 15 * time.Second

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil && !os.IsNotExist(err) {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if getEnv.JWT_SECRET == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	log, err := utils.NewLogger(getEnv.LOG_MODE, getEnv.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(getEnv.STORE_DRIVER, log)
	if err != nil {
		log.Error("check whether Postgres is running (make docker-up or make db-up)", "driver", getEnv.STORE_DRIVER)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Error("failed to initialize database tables", "error", err)
		return err
	}

	schedules, recommendations, err := BuildWeekServices(getEnv, store, log)
	if err != nil {
		return err
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)
	router.SetupRoutes(server.GetEngine(), router.Deps{
		Store:           store,
		Schedules:       schedules,
		Recommendations: recommendations,
		JWT: auth.JWTConfig{
			Secret: getEnv.JWT_SECRET,
			Expiry: 24 * time.Hour,
			Issuer: getEnv.JWT_ISSUER,
		},
		Security: middleware.SecurityConfig{
			AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
			RateLimitRequests: getEnv.RATE_LIMIT_REQUESTS,
			RateLimitWindow:   time.Minute,
		},
		Log: log,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down API server")
		if err := server.Shutdown(shutdownTimeout); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	return server.Run()
}

// openStore picks the storage backend named by STORE_DRIVER
func openStore(driver string, log *utils.Logger) (database.Storage, error) {
	switch driver {
	case "", "gorm":
		return database.StartGORM(log)
	case "sql":
		return database.Start(log)
	case "memory":
		log.Warn("using in-memory store, nothing survives a restart")
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want gorm, sql or memory)", driver)
	}
}

// BuildWeekServices wires the week planner services. Without an inference key schedules are
// built deterministically and recommendations are unavailable.
func BuildWeekServices(getEnv *config.EnviornmentVariable, store database.Storage, log *utils.Logger) (*services.WeekScheduleService, *services.RecommendationService, error) {
	var weekCache database.WeekCacheStore = store
	if getEnv.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Warn("failed to connect to Redis, serving week plans from the database only", "error", err)
		} else {
			weekCache = cache.NewWeekCache(store, redisCache, time.Duration(getEnv.REDIS_TTL_HOURS)*time.Hour, log)
		}
	}

	var completer services.Completer
	if getEnv.DO_INFERENCE_API_KEY != "" {
		client := digitalocean.NewInferenceClient(digitalocean.InferenceConfig{
			APIKey:  getEnv.DO_INFERENCE_API_KEY,
			BaseURL: getEnv.INFERENCE_BASE_URL,
			Timeout: time.Duration(getEnv.INFERENCE_TIMEOUT_SECONDS) * time.Second,
			Model:   getEnv.INFERENCE_MODEL,
		})
		completer = services.NewInferenceCompleter(client, log)
		log.Info("inference enabled", "model", client.Model())
	} else {
		log.Warn("DO_INFERENCE_API_KEY not set, schedules are deterministic and recommendations are disabled")
	}

	trusted, err := config.LoadTrustedHosts(getEnv.TRUSTED_HOSTS_FILE)
	if err != nil {
		return nil, nil, err
	}

	schedules := services.NewWeekScheduleService(store, weekCache, services.NewScheduleReconciler(completer, log), log)
	recommendations := services.NewRecommendationService(
		store,
		weekCache,
		schedules,
		services.NewResourceCurator(completer, services.NewHostAllowlist(trusted), log),
		log,
	)
	return schedules, recommendations, nil
}
