package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 服务配置，全部来自环境变量（本地开发用 .env 覆盖）
type Config struct {
	Port      int    `envconfig:"PORT" default:"8082"`
	DBHost    string `envconfig:"DB_HOST" default:"localhost"`
	DBPort    int    `envconfig:"DB_PORT" default:"3306"`
	DBUser    string `envconfig:"DB_USER" default:"root"`
	DBPass    string `envconfig:"DB_PASS" default:""`
	DBName    string `envconfig:"DB_NAME" default:"novel_voice"`
	JWTSecret string `envconfig:"JWT_SECRET" default:"novel-voice-secret"`
	JWTExpire int    `envconfig:"JWT_EXPIRE_HOURS" default:"72"` // token 有效期（小时）
}

// Load 读取配置。.env 不存在时直接用环境变量
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}
	return cfg
}
