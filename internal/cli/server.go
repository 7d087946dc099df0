package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/config"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
	pginfra "quizdeck-service/internal/infra/postgres"
	redisinfra "quizdeck-service/internal/infra/redis"
	"quizdeck-service/internal/logger"
	transport "quizdeck-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo interface {
		app.QuizRepository
		app.QuizCatalog
	}
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptStore
	var leaderboard app.LeaderboardStore
	switch {
	case pool != nil:
		attempts = pginfra.NewAttemptStore(pool)
	case redisClient != nil:
		attempts = redisinfra.NewAttemptStore(redisClient)
	default:
		attempts = memory.NewAttemptStore()
	}
	if redisClient != nil {
		leaderboard = redisinfra.NewLeaderboard(redisClient)
	} else {
		leaderboard = memory.NewLeaderboard()
	}

	var tokens auth.TokenStore
	if redisClient != nil {
		tokens = redisinfra.NewTokenStore(redisClient, redisTTL)
	} else {
		tokens = memory.NewTokenStore()
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-only-secret"
		log.Warn("auth secret not configured, using development default")
	}
	users := memory.NewUserDirectory()
	seedUsers(ctx, users)
	authService := auth.NewService(users, auth.NewManager(secret, tokenTTL), tokens)

	sessions := memory.NewSessionStore()
	service := app.NewQuizService(sessions, quizRepo, quizRepo, attempts, leaderboard, log)

	wsHandler := transport.NewWSHandler(service, authService, log)
	catalogHandler := transport.NewCatalogHandler(service, sampleCatalog(), log)
	authHandler := transport.NewAuthHandler(authService, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/quizzes", catalogHandler.ServeQuizzes)
	mux.HandleFunc("/catalog", catalogHandler.ServeCatalog)
	mux.HandleFunc("/leaderboard", catalogHandler.ServeLeaderboard)
	mux.HandleFunc("/attempts", catalogHandler.ServeAttempts)
	mux.HandleFunc("/auth/login", authHandler.ServeLogin)
	mux.HandleFunc("/auth/register", authHandler.ServeRegister)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedUsers provisions a demo account so the auth endpoints work without a
// user database.
func seedUsers(ctx context.Context, users *memory.UserDirectory) {
	hash, err := bcrypt.GenerateFromPassword([]byte("student123"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	_ = users.Create(ctx, domain.User{
		ID:          "u-demo",
		Email:       "student@example.edu",
		DisplayName: "Demo Student",
		Role:        "student",
	}, string(hash))
}

// sampleCatalog provides the reference records backing /catalog.
func sampleCatalog() *memory.CatalogDirectory {
	return memory.NewCatalogDirectory(
		[]domain.University{
			{ID: "univ-1", Name: "State Polytechnic", Acronym: "SP", City: "Springfield"},
			{ID: "univ-2", Name: "Riverside University", Acronym: "RU", City: "Riverside"},
		},
		[]domain.Faculty{
			{ID: "fac-1", Name: "Computer Science", UniversityID: "univ-1"},
			{ID: "fac-2", Name: "Mathematics", UniversityID: "univ-1"},
			{ID: "fac-3", Name: "Engineering", UniversityID: "univ-2"},
		},
		[]domain.Subject{
			{ID: "subj-cs", Name: "Programming", Category: "Computer Science"},
			{ID: "subj-math", Name: "Linear Algebra", Category: "Mathematics"},
		},
	)
}

// sampleQuizzes provides a minimal catalog; swap the loader with a
// Postgres-backed one in production.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          "quiz-1",
			Title:       "Introduction to Python Programming",
			Description: "Variables, control flow, functions and a first look at OOP.",
			SubjectID:   "subj-cs",
			Level:       "S1",
			Difficulty:  domain.DifficultyBeginner,
			DurationMin: 30,
			Tags:        []string{"Python", "Algorithms"},
			Questions: []domain.Question{
				{
					ID:          "q1",
					Prompt:      "What is the result of 2 + 2?",
					Options:     []string{"3", "4", "5", "22"},
					Correct:     1,
					Explanation: "Integer addition.",
					Points:      1,
				},
				{
					ID:      "q2",
					Prompt:  "Which keyword defines a function in Python?",
					Options: []string{"func", "def", "fn", "lambda"},
					Correct: 1,
					Points:  1,
				},
			},
		},
		{
			ID:          "quiz-2",
			Title:       "Linear Algebra Basics",
			Description: "Vectors, matrices and determinants.",
			SubjectID:   "subj-math",
			Level:       "S2",
			Difficulty:  domain.DifficultyIntermediate,
			DurationMin: 45,
			Pro:         true,
			Tags:        []string{"Math", "Algebra"},
			Questions: []domain.Question{
				{
					ID:      "q1",
					Prompt:  "What is the determinant of the 2x2 identity matrix?",
					Options: []string{"0", "1", "2", "-1"},
					Correct: 1,
					Points:  1,
				},
			},
		},
	}
}
