package config

// BusKind selects the broadcast transport implementation.
type BusKind string

const (
	// BusMemory fans frames out inside a single process. It is the default
	// and what the test harness uses.
	BusMemory BusKind = "memory"
	// BusRedis multiplexes frames over a local Redis pub/sub channel so
	// several processes on the same machine can share rooms.
	BusRedis BusKind = "redis"
)

// BusConfig holds broadcast transport settings.
type BusConfig struct {
	Kind         BusKind `mapstructure:"kind" yaml:"kind"`
	RedisAddr    string  `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB      int     `mapstructure:"redis_db" yaml:"redis_db"`
	RedisChannel string  `mapstructure:"redis_channel" yaml:"redis_channel"`
}

// Config holds application configuration values.
type Config struct {
	LogLevel     string    `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath string    `mapstructure:"database_path" yaml:"database_path"`
	BaseURL      string    `mapstructure:"base_url" yaml:"base_url"`
	Bus          BusConfig `mapstructure:"bus" yaml:"bus"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:     "info",
		DatabasePath: "liveshare.db",
		BaseURL:      "https://shahjalal.dev/code-live",
		Bus: BusConfig{
			Kind:         BusMemory,
			RedisAddr:    "localhost:6379",
			RedisDB:      0,
			RedisChannel: "liveshare:rooms:events",
		},
	}
}
