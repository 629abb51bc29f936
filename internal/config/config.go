package config

import (
	"os"

	"vaani/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Addr         string `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
		RateLimit    int    `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"0"`
		RateInterval string `yaml:"rate_interval" env:"SERVER_RATE_INTERVAL" env-default:"1m"`
	} `yaml:"server"`

	Gemini struct {
		APIKey   string `yaml:"api_key" env:"GEMINI_API_KEY"`
		Model    string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.0-flash"`
		Endpoint string `yaml:"endpoint" env:"GEMINI_ENDPOINT"`
	} `yaml:"gemini"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`

	Postgres struct {
		DSN string `yaml:"dsn" env:"POSTGRES_DSN" env-default:""`
	} `yaml:"postgres"`

	S3 struct {
		Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:""`
		Region    string `yaml:"region" env:"S3_REGION" env-default:"ap-south-1"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY" env-default:""`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY" env-default:""`
		Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:""`
	} `yaml:"s3"`

	Client struct {
		ServerURL      string `yaml:"server_url" env:"VAANI_SERVER_URL" env-default:"http://localhost:8080"`
		HistoryDir     string `yaml:"history_dir" env:"VAANI_HISTORY_DIR" env-default:""`
		CaptureCommand string `yaml:"capture_command" env:"VAANI_CAPTURE_COMMAND" env-default:"ffmpeg"`
		SpeakCommand   string `yaml:"speak_command" env:"VAANI_SPEAK_COMMAND" env-default:"espeak-ng"`
	} `yaml:"client"`
}

// LoadConfig reads configs/config.yaml with environment overrides. A
// missing file is fine; the environment alone is enough.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("configs/config.yaml", &cfg); err != nil {
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	}

	logger.Info("Config loaded successfully")
	return &cfg, nil
}
