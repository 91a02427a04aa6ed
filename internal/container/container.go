package container

import "time"

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"

	cacheWarmerGroup = "cache-warmer"
	warmerAttempts   = 3
	warmerBackoff    = 200 * time.Millisecond
)

// Options holds the service configuration. humacli fills it from flags and SERVICE_* env vars.
type Options struct {
	Port         int    `default:"8888"           help:"Port to listen on"                           short:"p"`
	CodeLength   int    `default:"8"              help:"Length of generated short codes"             short:"c"`
	Storage      string `default:"memory"         help:"Storage backend: memory, redis or postgres" short:"s"`
	DatabaseURL  string `default:""               help:"Postgres connection string"`
	RedisAddr    string `default:"localhost:6379" help:"Redis server address"                        short:"r"`
	StoreTimeout int    `default:"5"              help:"Timeout for a single store call, in seconds"`
	CacheTTL     int    `default:"3600"           help:"TTL of cached lookups in seconds, 0 disables"`
	Events       bool   `default:"false"          help:"Publish link-created events to Redis streams"`
	LogFormat    string `default:"console"        help:"Log format: console or json"`
}

func (o *Options) storeTimeout() time.Duration {
	return time.Duration(o.StoreTimeout) * time.Second
}

func (o *Options) cacheTTL() time.Duration {
	return time.Duration(o.CacheTTL) * time.Second
}

// Cached reports whether the server reads through the redis cache.
func (o *Options) Cached() bool {
	return o.Storage == StoragePostgres && o.CacheTTL > 0
}

func (o *Options) usesRedis() bool {
	return o.Storage == StorageRedis || o.Events || o.Cached()
}
