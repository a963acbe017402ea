package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/config"
	"github.com/convohq/messaging-service/internal/auth"
	"github.com/convohq/messaging-service/internal/cache"
	"github.com/convohq/messaging-service/internal/chat"
	"github.com/convohq/messaging-service/internal/events"
	"github.com/convohq/messaging-service/internal/handlers"
	"github.com/convohq/messaging-service/internal/live"
	"github.com/convohq/messaging-service/internal/routes"
	"github.com/convohq/messaging-service/internal/store"
	"github.com/convohq/messaging-service/internal/todo"
	"github.com/convohq/messaging-service/internal/ws"
)

type AppServer struct {
	app *fiber.App
	cfg *config.Config
}

func (s *AppServer) Listen(addr string) error {
	return s.app.Listen(addr)
}

// New wires the application together and returns it with a close
// function for graceful shutdown.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*AppServer, func(ctx context.Context) error, error) {
	mc, err := store.NewClient(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	db := mc.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, nil, err
	}

	feed := live.NewRedisFeed(rdb, cfg.Redis.Prefix, log)
	st := store.NewMongo(db, feed)
	if err := st.EnsureIndexes(ctx); err != nil {
		log.Warnw("ensure indexes", "err", err)
	}
	todoStore := store.NewTodoStore(db)
	if err := todoStore.EnsureIndexes(ctx); err != nil {
		log.Warnw("ensure todo indexes", "err", err)
	}

	var sink chat.EventSink
	var producer *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		sink = producer
	}

	chatSvc := chat.NewService(st, sink, log, cfg.CallTimeout)
	todoSvc := todo.NewService(todoStore)

	verifier := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.SigningMethod)
	presence := cache.NewPresence(rdb, cfg.Redis.Prefix)
	wsServer := ws.NewServer(chatSvc, feed, presence, log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	routes.Register(app, cfg,
		handlers.NewChatHandler(chatSvc, log),
		handlers.NewTodoHandler(todoSvc, log),
		wsServer, verifier, log)

	srv := &AppServer{app: app, cfg: cfg}
	closeFn := func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := srv.app.ShutdownWithContext(sctx)
		if producer != nil {
			_ = producer.Close()
		}
		_ = rdb.Close()
		_ = mc.Disconnect(ctx)
		return err
	}
	return srv, closeFn, nil
}
