package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"skilltrade/internal/config"
	"skilltrade/internal/database"
	"skilltrade/internal/database/migration"
	dbpostgres "skilltrade/internal/database/postgres"
	"skilltrade/internal/database/seeder"
	"skilltrade/internal/events"
	"skilltrade/internal/notify"
	"skilltrade/internal/pkg/jwt"
	"skilltrade/internal/repository"
	"skilltrade/internal/skillindex"
	"skilltrade/internal/usecase"
	"skilltrade/internal/ws"
)

// Container owns every long-lived dependency. Construction order
// matters: storage first, then the index hydrated from it, then the
// broker and the usecases on top.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB     database.DB
	Index  *skillindex.Index
	Replay *events.RedisReplay
	Broker *events.Broker
	Hub    *ws.Hub
	JWT    jwt.Service

	Skills usecase.SkillUsecase
	Match  usecase.MatchUsecase
	Trades usecase.TradeUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := (migration.Runner{Dir: cfg.Database.MigrationsDir}).Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if isDevelopment(cfg.App.Environment) {
		if err := (seeder.Runner{Seeders: seeder.Defaults()}).Run(ctx, db); err != nil {
			logger.Printf("app | seeding failed: %v", err)
		}
	}

	users := repository.NewPostgresUserRepository(db)
	skills := repository.NewPostgresSkillRepository(db)
	trades := repository.NewPostgresTradeRepository(db)

	index := skillindex.New()
	if err := hydrateIndex(ctx, index, skills); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("hydrate skill index: %w", err)
	}

	replay := events.NewRedisReplay(logger, cfg.Events.ReplayDepth)
	broker := events.NewBroker(
		logger,
		events.WithReplayStore(replay),
		events.WithSubscriberBuffer(cfg.Events.SubscriberBuffer),
		events.WithReplayDepth(cfg.Events.ReplayDepth),
	)

	jwtSvc := jwt.NewHMACService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiresIn)
	hooks := notify.NewLogDispatcher(logger)

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Index:  index,
		Replay: replay,
		Broker: broker,
		Hub:    ws.NewHub(logger),
		JWT:    jwtSvc,
		Skills: usecase.NewSkillUsecase(skills, index),
		Match:  usecase.NewMatchUsecase(users, index, broker, logger),
		Trades: usecase.NewTradeUsecase(trades, users, broker, hooks, logger),
	}
	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Hub != nil {
		c.Hub.Shutdown()
	}
	if c.Broker != nil {
		c.Broker.Close()
	}
	if c.Replay != nil {
		_ = c.Replay.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// hydrateIndex rebuilds the in-memory index from the persisted skills.
// The index is a pure cache; the rows are the source of truth.
func hydrateIndex(ctx context.Context, index *skillindex.Index, skills repository.SkillRepository) error {
	all, err := skills.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, s := range all {
		index.Upsert(s.UserID, s)
	}
	return nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local":
		return true
	}
	return false
}
