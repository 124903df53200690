package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio. La API key de completions
// no es requerida al boot: su ausencia se reporta como 400 recién cuando un
// request la necesita.
type Config struct {
	HTTPPort             string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	AkashChatAPIKey      string `env:"AKASH_CHAT_API_KEY"`
	AkashChatBaseURL     string `env:"AKASH_CHAT_BASE_URL" envDefault:"https://chatapi.akash.network/api/v1"`
	AkashChatModel       string `env:"AKASH_CHAT_MODEL" envDefault:"Meta-Llama-3-1-8B-Instruct-FP8"`
	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
	RedisAddr            string `env:"REDIS_ADDR"`
	RedisPassword        string `env:"REDIS_PASSWORD"`
	RedisDB              int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
