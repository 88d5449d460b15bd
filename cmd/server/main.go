package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/wordgame/fictionary/pkg/achievements"
	"github.com/wordgame/fictionary/pkg/game"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/identity"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/oracle"
	"github.com/wordgame/fictionary/pkg/pool"
	"github.com/wordgame/fictionary/pkg/queue"
	"github.com/wordgame/fictionary/pkg/repositories"
	"github.com/wordgame/fictionary/pkg/servers"
	"github.com/wordgame/fictionary/pkg/workers"
)

type config struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"fictionary.db"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations/sqlite"`
	DataDir       string `env:"DATA_DIR" envDefault:"data"`
	// CronSpec schedules the daily curated round.
	CronSpec    string `env:"DAILY_CRON" envDefault:"0 22 * * *"`
	OracleURL   string `env:"ORACLE_URL"`
	OracleModel string `env:"ORACLE_MODEL" envDefault:"base"`
}

func main() {
	httpPort := flag.String("http-port", "8888", "HTTP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("Failed to parse environment: %v", err))
	}

	ctx := context.Background()

	var repository repositories.Repository
	if cfg.DatabaseURL != "" {
		repository, err = repositories.NewPostgresRepository(ctx, cfg.DatabaseURL)
	} else {
		repository, err = repositories.NewSQLiteRepository(ctx, cfg.SQLitePath, cfg.MigrationsDir)
	}
	if err != nil {
		panic(fmt.Sprintf("Failed to open repository: %v", err))
	}
	defer repository.Close(ctx)

	wordPool, err := pool.Load(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to load word pool: %v", err))
	}
	log.Info("Loaded %d pool candidates", wordPool.Len())

	savedGame, err := repository.LoadSnapshot(ctx)
	if err != nil {
		if !repositories.IsNotFound(err) {
			panic(fmt.Sprintf("Failed to load game snapshot: %v", err))
		}
		log.Info("No saved game found, starting fresh")
		savedGame = gametypes.NewGame()
	}

	var oracles []*oracle.Agent
	if cfg.OracleURL != "" {
		meaner := oracle.NewHTTPMeaner(cfg.OracleURL, cfg.OracleModel)
		id := gametypes.PlayerID("oracle:" + cfg.OracleModel)
		oracles = append(oracles, oracle.NewAgent(id, cfg.OracleModel, meaner))
	}

	lookup := identity.NewStaticLookup(nil)
	wsGateway := servers.NewWSGateway(lookup)
	eventQueue := queue.NewInMemoryQueue(1024)

	manager := game.NewManager(game.NewManagerOptions{
		Game:       savedGame,
		Repository: repository,
		Gateway:    wsGateway,
		Pool:       wordPool,
		Resolver:   pool.NewWikiResolver(),
		Oracles:    oracles,
		EventQueue: eventQueue,
	})
	manager.Resume(ctx)

	achievementsWorker := workers.NewPublishAchievementsWorker(workers.NewPublishAchievementsWorkerOptions{
		EventQueue: eventQueue,
		Publisher:  achievements.NopPublisher{},
		Interval:   10 * time.Second,
	})
	go achievementsWorker.Start(ctx)

	dailyWorker := workers.NewDailyRoundWorker(workers.NewDailyRoundWorkerOptions{
		Spec:    cfg.CronSpec,
		Trigger: manager.RequestCuratedRound,
	})
	go func() {
		if err := dailyWorker.Start(ctx); err != nil {
			log.Error("Daily round worker stopped: %v", err)
		}
	}()

	apiServer := servers.NewAPIServer(servers.NewAPIServerOptions{
		Manager:    manager,
		Repository: repository,
		Gateway:    wsGateway,
		Port:       *httpPort,
	})
	if err := apiServer.Start(); err != nil {
		panic(fmt.Sprintf("HTTP server stopped: %v", err))
	}
}
