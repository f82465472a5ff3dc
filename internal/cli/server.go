package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-api/internal/app"
	"quiz-api/internal/auth"
	"quiz-api/internal/config"
	"quiz-api/internal/infra/memory"
	"quiz-api/internal/infra/postgres"
	rediscache "quiz-api/internal/infra/redis"
	"quiz-api/internal/infra/sqlite"
	"quiz-api/internal/logging"
	"quiz-api/internal/metrics"
	transport "quiz-api/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// repositories holds the selected storage backend and its cleanup.
type repositories struct {
	users   app.UserRepository
	quizzes app.QuizRepository
	close   func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Format, cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		repos.quizzes = rediscache.NewCachedQuizRepository(repos.quizzes, redisClient, redisTTL, log)
		log.Info("quiz cache enabled", "addr", cfg.Redis.Addr, "ttl", redisTTL)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		return err
	}
	authService := app.NewAuthService(repos.users, tokens, log)
	quizService := app.NewQuizService(repos.quizzes, repos.users, log)
	api := transport.NewServer(authService, quizService, metrics.New(), log, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting quiz api", "port", finalPort, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serveErr:
		log.Error("server failed", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (repositories, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return repositories{}, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return repositories{}, fmt.Errorf("connect postgres: %w", err)
		}
		return repositories{
			users:   postgres.NewUserRepository(pool),
			quizzes: postgres.NewQuizRepository(pool),
			close:   pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return repositories{}, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		return repositories{
			users:   sqlite.NewUserRepository(db),
			quizzes: sqlite.NewQuizRepository(db),
			close:   func() { _ = db.Close() },
		}, nil

	default:
		log.Warn("using in-memory storage; data is lost on restart")
		users := memory.NewUserRepository()
		return repositories{
			users:   users,
			quizzes: memory.NewQuizRepository(users),
			close:   func() {},
		}, nil
	}
}
