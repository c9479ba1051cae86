package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/251027-Java/P3-Group2/trade-service/internal/config"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/pubsub"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application/trade"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/broker/logbroker"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/broker/rabbitmq"
	redisbroker "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/broker/redis"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/marketplace"
	dbbadger "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/badger"
	"github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/pg"
	eventsinterface "github.com/251027-Java/P3-Group2/trade-service/internal/interfaces/events"
	httpinterface "github.com/251027-Java/P3-Group2/trade-service/internal/interfaces/http"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	if err := run(sigChan); err != nil {
		log.Fatal(err)
	}
}

// run starts the service and blocks until a signal is received. Every
// resource opened is released before returning, also on failure.
func run(sigChan <-chan os.Signal) error {
	if err := config.InitConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	if config.GetBool(config.LogJSONKey) {
		log.SetFormatter(&log.JSONFormatter{})
	}

	repoManager, err := newRepoManager()
	if err != nil {
		return fmt.Errorf("failed to open trade store: %w", err)
	}
	defer repoManager.Close()

	publisher, subscriber, err := newBroker()
	if err != nil {
		return fmt.Errorf("failed to connect to message broker: %w", err)
	}
	defer publisher.Close()
	defer subscriber.Close()

	listingSvc, err := marketplace.NewListingClient(
		config.GetString(config.ListingServiceURLKey),
		config.GetDuration(config.RemoteTimeoutKey),
	)
	if err != nil {
		return fmt.Errorf("failed to create listing service client: %w", err)
	}
	userSvc, err := marketplace.NewUserClient(
		config.GetString(config.UserServiceURLKey),
		config.GetDuration(config.RemoteTimeoutKey),
	)
	if err != nil {
		return fmt.Errorf("failed to create user service client: %w", err)
	}

	pubsubSvc, err := pubsub.NewService(repoManager.OutboxRepository())
	if err != nil {
		return fmt.Errorf("failed to create pubsub service: %w", err)
	}
	tradeSvc, err := trade.NewService(repoManager, listingSvc, userSvc, pubsubSvc)
	if err != nil {
		return fmt.Errorf("failed to create trade service: %w", err)
	}
	dispatcher, err := pubsub.NewDispatcher(
		repoManager.OutboxRepository(), publisher, pubsub.DispatcherOpts{
			Interval:    config.GetDuration(config.OutboxIntervalKey),
			BatchSize:   config.GetInt(config.OutboxBatchSizeKey),
			MaxAttempts: config.GetInt(config.OutboxMaxAttemptsKey),
			PublishRate: config.GetInt(config.PublishRateKey),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox dispatcher: %w", err)
	}

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:  fmt.Sprintf(":%d", config.GetInt(config.HTTPPortKey)),
		TradeSvc: tradeSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create http interface: %w", err)
	}
	eventsSvc, err := eventsinterface.NewService(eventsinterface.ServiceOpts{
		Subscriber: subscriber,
		TradeSvc:   tradeSvc,
	})
	if err != nil {
		return fmt.Errorf("failed to create event consumer: %w", err)
	}

	eg := &errgroup.Group{}
	eg.Go(httpSvc.Start)
	eg.Go(eventsSvc.Start)
	defer httpSvc.Stop()
	defer eventsSvc.Stop()
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	dispatcher.Start()
	defer dispatcher.Stop()

	log.Info("trade service started")
	<-sigChan
	log.Info("shutdown")
	return nil
}

func newRepoManager() (ports.RepoManager, error) {
	switch config.GetString(config.DBTypeKey) {
	case application.DBInmemory:
		return inmemory.NewRepoManager(), nil
	case application.DBPostgres:
		return postgresdb.NewService(
			context.Background(), config.GetString(config.PgConnectAddr),
		)
	default:
		return dbbadger.NewRepoManager(config.GetDbDir(), nil)
	}
}

func newBroker() (ports.Publisher, ports.Subscriber, error) {
	switch config.GetString(config.BrokerTypeKey) {
	case application.BrokerRabbitMQ:
		url := config.GetString(config.RabbitMQURLKey)
		publisher, err := rabbitmq.NewPublisher(url)
		if err != nil {
			return nil, nil, err
		}
		subscriber, err := rabbitmq.NewSubscriber(
			url, config.GetString(config.RabbitMQQueueKey),
		)
		if err != nil {
			publisher.Close()
			return nil, nil, err
		}
		return publisher, subscriber, nil
	case application.BrokerRedis:
		addr := config.GetString(config.RedisAddrKey)
		return redisbroker.NewPublisher(redisbroker.NewClient(addr)),
			redisbroker.NewSubscriber(redisbroker.NewClient(addr)), nil
	default:
		return logbroker.NewPublisher(), logbroker.NewSubscriber(), nil
	}
}
