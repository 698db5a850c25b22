package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"learnify-quiz-service/internal/app"
	"learnify-quiz-service/internal/config"
	"learnify-quiz-service/internal/domain"
	"learnify-quiz-service/internal/infra/jdoodle"
	"learnify-quiz-service/internal/infra/memory"
	pgstore "learnify-quiz-service/internal/infra/postgres"
	redisstore "learnify-quiz-service/internal/infra/redis"
	transport "learnify-quiz-service/internal/transport/http"
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
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	var recorder app.AttemptRecorder = memory.NewAttemptRecorder()
	if pool != nil {
		recorder = pgstore.NewAttemptStore(pool)
	}

	var executor app.CodeExecutor
	if cfg.JDoodle.ClientID != "" && cfg.JDoodle.ClientSecret != "" {
		executor = jdoodle.NewClient(jdoodle.Options{
			URL:          cfg.JDoodle.URL,
			ClientID:     cfg.JDoodle.ClientID,
			ClientSecret: cfg.JDoodle.ClientSecret,
		})
	} else {
		log.Printf("jdoodle credentials not configured; coding questions run without remote execution")
	}

	service := app.NewQuizService(store, quizRepo, recorder, executor)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal quiz set for running without a database.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Python Basics",
			Questions: []domain.QuizQuestion{
				{
					Text:          "What is the output of print(2 + 2)?",
					Type:          domain.TypeMCQ,
					Options:       []string{"3", "4", "22"},
					CorrectAnswer: "4",
					Explanation:   "The + operator adds the two integers.",
				},
				{
					Text:           "Sum the numbers from 1 to 10",
					Type:           domain.TypeCoding,
					CodingPrompt:   "Write a program to sum numbers from 1 to 10 using a loop and print the result",
					StarterCode:    "total = 0\n# your loop here\nprint(total)",
					ExpectedOutput: "55",
					Language:       "python",
				},
			},
		},
	}
}
