package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "pensio"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// An edit lock whose heartbeat is older than this is considered abandoned
	// and may be reclaimed by any acquirer.
	DefaultLockStaleness = 5 * time.Minute

	// The timeline is paginated into fixed-size date pages; the cleaning plan
	// splits a month into days 1-15 and 16-end.
	DefaultTimelinePageDays = 15

	DefaultReplicaDSN        = "file:cleaning_replica.db?cache=shared"
	DefaultReplicaRowTimeout = 2 * time.Second
	DefaultSyncTimeout       = 60 * time.Second
	DefaultSyncInterval      = 15 * time.Minute
	DefaultSyncWindowDays    = 31

	DefaultLogLevel = "info"

	DefaultPaginationLimit = 100

	// MaxPaginationLimit bounds unpaginated internal reads, such as
	// loading every reservation overlapping a timeline window.
	MaxPaginationLimit = 1000
)
