package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/eventhub/orders-service/internal/adapters/mongo"
	"github.com/eventhub/orders-service/internal/adapters/postgres"
	"github.com/eventhub/orders-service/internal/adapters/rabbit"
	redisadapter "github.com/eventhub/orders-service/internal/adapters/redis"
	"github.com/eventhub/orders-service/internal/clients"
	"github.com/eventhub/orders-service/internal/config"
	httpserver "github.com/eventhub/orders-service/internal/http"
	"github.com/eventhub/orders-service/internal/messaging"
	"github.com/eventhub/orders-service/internal/observability"
	"github.com/eventhub/orders-service/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	repo := postgres.NewRepository(pool)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()

	rpc, err := rabbit.NewRPCClient(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create rpc client: %v", err)
	}

	catalog := clients.NewCatalogClient(rpc, cfg.RPCTimeout)
	payments := clients.NewPaymentClient(rpc, cfg.RPCTimeout, cfg.Currency)
	inventory := clients.NewInventoryClient(rpc, cfg.RPCTimeout)

	var audit orders.Auditor
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		audit = mongoadapter.NewAuditLogger(mongoClient.Database("orders"), logger)
	}

	var replies messaging.ReplyCache
	if cfg.RedisAddr != "" {
		rdb := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		replies = redisadapter.NewReplyCache(rdb, time.Hour)
	}

	svc := orders.NewService(repo, catalog, payments, inventory, audit, logger, cfg.PaymentFallbackURL)

	srv, err := rabbit.NewServer(rabbitConn, cfg.OrdersQueue, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	endpoint := messaging.NewEndpoint(svc, replies, logger)
	if err := endpoint.Register(srv); err != nil {
		log.Fatalf("failed to register handlers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Run(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("messaging server stopped")
		}
	}()

	opsSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpserver.SetupRouter(pool),
	}
	go func() {
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	logger.Info("orders service is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown:", err)
	}
}
