package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	RedisURL            string
	ServerPort          string
	DiscordClientID     string
	DiscordClientSecret string
}

func Load() *Config {
	// Local development reads .env; in production the variables are set
	// by the environment and the file is simply absent.
	_ = godotenv.Load()

	return &Config{
		DBHost:              getEnv("POSTGRES_HOST", "localhost"),
		DBPort:              getEnv("POSTGRES_PORT", "5432"),
		DBUser:              getEnv("POSTGRES_USER", "postgres"),
		DBPassword:          getEnv("POSTGRES_PASSWORD", "postgres"),
		DBName:              getEnv("POSTGRES_DB", "tictactoe"),
		RedisURL:            getEnv("REDIS_URL", ""),
		ServerPort:          getEnv("PORT", "4000"),
		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
