package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servidor de API.
type Config struct {
	HTTPPort        string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	IdentityBaseURL string `env:"IDENTITY_BASE_URL" envDefault:"https://demobackend.emergentagent.com/auth/v1/env/oauth"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"168"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
}

// AppConfig centraliza la configuración del cliente de terminal.
type AppConfig struct {
	APIBaseURL   string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	AuthorizeURL string `env:"AUTHORIZE_URL" envDefault:"https://auth.emergentagent.com/authorize"`
	RedirectURI  string `env:"REDIRECT_URI" envDefault:"memorymakers://auth"`
	TokenDBPath  string `env:"TOKEN_DB_PATH" envDefault:"memorymakers.db"`
}

// LoadConfig carga la configuración del servidor desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAppConfig carga la configuración del cliente desde variables de entorno.
func LoadAppConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
