package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockStaleness    = "LOCK_STALENESS"
	EnvTimelinePageDays = "TIMELINE_PAGE_DAYS"

	EnvReplicaDSN        = "REPLICA_DSN"
	EnvReplicaRowTimeout = "REPLICA_ROW_TIMEOUT"
	EnvSyncTimeout       = "SYNC_TIMEOUT"
	EnvSyncInterval      = "SYNC_INTERVAL"
	EnvSyncWindowDays    = "SYNC_WINDOW_DAYS"
)
