package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	TCPPort    string    `yaml:"tcp-port" env:"TCP_PORT" env-default:"7070"`
	WebSocket  WebSocket `yaml:"websocket"`
	Redis      Redis     `yaml:"redis"`
}

type WebSocket struct {
	ReadLimit  int64         `yaml:"read-limit" env:"WS_READ_LIMIT" env-default:"4096"`
	PingPeriod time.Duration `yaml:"ping-period" env:"WS_PING_PERIOD" env-default:"54s"`
	PongWait   time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	WriteWait  time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	SendBuffer int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
}

type Redis struct {
	Enabled       bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host          string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port          string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	RecentMatches int           `yaml:"recent-matches" env:"REDIS_RECENT_MATCHES" env-default:"20"`
	MatchTTL      time.Duration `yaml:"match-ttl" env:"REDIS_MATCH_TTL" env-default:"168h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load - reads the file when it exists, otherwise only the environment and defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

var ErrInvalidWebSocketTimings = errors.New("websocket ping-period must be shorter than pong-wait")

func (that *Config) validate() error {
	if that.WebSocket.PingPeriod >= that.WebSocket.PongWait {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidWebSocketTimings, that.WebSocket.PingPeriod, that.WebSocket.PongWait)
	}
	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
