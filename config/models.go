package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	QueueName    string `mapstructure:"queue_name"`
	RoutingKey   string `mapstructure:"routing_key"`
	WorkerCount  int    `mapstructure:"worker_count" validate:"gte=1"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gte=1"`
}

type HeartbeatConfig struct {
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"gt=0"`
}

type NotifyConfig struct {
	WorkerCount int           `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int           `mapstructure:"queue_size" validate:"gte=1"`
	WebhookURL  string        `mapstructure:"webhook_url"`
	FromEmail   string        `mapstructure:"from_email"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type Config struct {
	Env         string           `mapstructure:"env"`
	ServiceName string           `mapstructure:"service_name"`
	Port        int              `mapstructure:"port" validate:"gte=1,lte=65535"`
	DB          *DBConfig        `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig     `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig  `mapstructure:"rabbitmq" validate:"required"`
	Scheduler   *SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Heartbeat   *HeartbeatConfig `mapstructure:"heartbeat" validate:"required"`
	Notify      *NotifyConfig    `mapstructure:"notify" validate:"required"`
}
