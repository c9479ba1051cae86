package application

// Supported db types.
const (
	DBBadger   = "badger"
	DBInmemory = "inmemory"
	DBPostgres = "postgres"
)

// Supported broker types.
const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerRedis    = "redis"
	BrokerNone     = "none"
)
