package app

import (
	"context"

	"github.com/milankatira/uptime-sub000/config"
	"github.com/milankatira/uptime-sub000/internals/modules/executor"
	"github.com/milankatira/uptime-sub000/internals/modules/heartbeat"
	"github.com/milankatira/uptime-sub000/internals/modules/incident"
	"github.com/milankatira/uptime-sub000/internals/modules/monitor"
	"github.com/milankatira/uptime-sub000/internals/modules/notify"
	"github.com/milankatira/uptime-sub000/internals/modules/scheduler"
	"github.com/milankatira/uptime-sub000/internals/modules/tick"
	"github.com/milankatira/uptime-sub000/pkg/rabbitmq"
	"github.com/milankatira/uptime-sub000/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	RMQConn     *amqp091.Connection
	Logger      *zerolog.Logger

	Scheduler  *scheduler.Scheduler
	Watcher    *heartbeat.Watcher
	Dispatcher *notify.Dispatcher
	Consumer   *rabbitmq.Consumer
	Publisher  *rabbitmq.Publisher

	monitorSvc *monitor.Service
	pipeline   *executor.Pipeline

	monitorHandler   *monitor.Handler
	incidentHandler  *incident.Handler
	heartbeatHandler *heartbeat.Handler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	rmqConn, err := rabbitmq.NewConnection(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	if err := rabbitmq.SetupTopology(rmqConn, cfg.RabbitMQ); err != nil {
		return nil, err
	}

	publisher, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		return nil, err
	}
	consumer, err := rabbitmq.NewConsumer(rmqConn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.WorkerCount)
	if err != nil {
		return nil, err
	}

	validator := validator.New()

	monitorRepo := monitor.NewRepository(db, logger)
	tickRepo := tick.NewRepository(db, logger)
	incidentRepo := incident.NewRepository(db, logger)
	heartbeatRepo := heartbeat.NewRepository(db, logger)

	sched := scheduler.NewScheduler(ctx, cfg.Scheduler, redisClient, publisher, logger)
	monitorSvc := monitor.NewService(monitorRepo, redisClient, sched, logger)

	dispatcher := notify.NewDispatcher(
		cfg.Notify.WorkerCount,
		cfg.Notify.QueueSize,
		cfg.Notify.SendTimeout,
		[]notify.Channel{
			notify.NewWebhookChannel(cfg.Notify.WebhookURL),
			notify.NewEmailChannel(cfg.Notify.FromEmail, logger),
			notify.NewPushChannel(logger),
		},
		logger,
	)

	engine := incident.NewEngine(incidentRepo, dispatcher, logger)
	pipeline := executor.NewPipeline(monitorSvc, executor.NewProber(), tickRepo, redisClient, engine, logger)

	heartbeatSvc := heartbeat.NewService(monitorRepo, heartbeatRepo, redisClient, engine, logger)
	watcher := heartbeat.NewWatcher(ctx, cfg.Heartbeat, heartbeatSvc, logger)

	incidentSvc := incident.NewService(incidentRepo, logger)

	return &Container{
		DB:          db,
		RedisClient: redisClient,
		RMQConn:     rmqConn,
		Logger:      logger,

		Scheduler:  sched,
		Watcher:    watcher,
		Dispatcher: dispatcher,
		Consumer:   consumer,
		Publisher:  publisher,

		monitorSvc: monitorSvc,
		pipeline:   pipeline,

		monitorHandler:   monitor.NewHandler(monitorSvc, tickRepo, redisClient, validator),
		incidentHandler:  incident.NewHandler(incidentSvc, validator),
		heartbeatHandler: heartbeat.NewHandler(heartbeatSvc, validator),
	}, nil
}

// Reconcile rebuilds the durable schedule from the monitor catalog. Run once
// at startup, after the scheduler exists but before it starts polling.
func (c *Container) Reconcile(ctx context.Context) error {
	return c.Scheduler.ReconcileAll(ctx, c.monitorSvc)
}

func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Consumer.Shutdown(ctx); err != nil {
		c.Logger.Error().Err(err).Msg("consumer shutdown failed")
	}
	c.Dispatcher.Shutdown()

	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.RMQConn != nil {
		_ = c.RMQConn.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
