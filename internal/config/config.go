package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"os"
	"time"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	WSServer   WSServer `yaml:"ws_server"`
	Oracle     Oracle   `yaml:"oracle"`
	Session    Session  `yaml:"session"`
	Draw       Draw     `yaml:"draw"`
	Signing    Signing  `yaml:"signing"`
	MySQL      MySQL    `yaml:"mysql"`
	Pusher     Pusher   `yaml:"pusher"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Oracle struct {
	URL        string        `yaml:"url" env:"ORACLE_URL" env-default:"https://api.drand.sh/public/latest"`
	Timeout    time.Duration `yaml:"timeout" env-default:"5s"`
	MaxRetries uint64        `yaml:"max_retries" env-default:"3"`
}

type Session struct {
	TTL           time.Duration `yaml:"ttl" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"10m"`
}

type Draw struct {
	WinnerCount int `yaml:"winner_count" env-default:"3"`
}

type Signing struct {
	PrivateKeyHex string `yaml:"private_key_hex" env:"SCORE_SIGNING_KEY"`
}

type MySQL struct {
	DSN string `yaml:"dsn" env:"MYSQL_DSN" env-default:"root:123@tcp(localhost:3306)/fairness?charset=utf8mb4,utf8&parseTime=True&loc=Local"`
}

type Pusher struct {
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env-default:"eu"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
