package intake

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/StackCodeArtisan/Madeiyesehomecare/env"
)

/*
ENV-ONLY CONFIG (a local .env file is loaded if present):
  Server:
    LISTEN_ADDR (default ":5000")

  Mail (all five required for delivery; if any is missing the notifier
  reports failure instead of sending):
    MAIL_SERVER, MAIL_PORT (default 587), MAIL_USERNAME, MAIL_PASSWORD,
    DESTINATION_EMAIL
    MAIL_USE_TLS (default "true")   // STARTTLS
    MAIL_USE_SSL (default "false")  // implicit TLS

  Anti-abuse:
    RATE_LIMIT_MAX (default 5)
    RATE_LIMIT_WINDOW_SECONDS (default 600)
    MIN_FILL_SECONDS (default 3)

  Limiter backend:
    LIMITER_BACKEND (default "memory"; "redis" for multi-instance)
    REDIS_ADDR (default "localhost:6379")
    REDIS_PASSWORD
    REDIS_DB (default 0)

  Sessions:
    SESSION_TTL_MINUTES (default 30)
*/

type MailCfg struct {
	Server      string
	Port        int
	Username    string
	Password    string
	UseTLS      bool
	UseSSL      bool
	Destination string
}

type RedisCfg struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	ListenAddr     string
	Mail           MailCfg
	MaxRequests    int
	Window         time.Duration
	MinFill        time.Duration
	LimiterBackend string
	Redis          RedisCfg
	SessionTTL     time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr: env.Env("LISTEN_ADDR", ":5000"),
		Mail: MailCfg{
			Server:      env.Env("MAIL_SERVER", ""),
			Port:        env.EnvInt("MAIL_PORT", 587),
			Username:    env.Env("MAIL_USERNAME", ""),
			Password:    env.Env("MAIL_PASSWORD", ""),
			UseTLS:      env.EnvBool("MAIL_USE_TLS", true),
			UseSSL:      env.EnvBool("MAIL_USE_SSL", false),
			Destination: env.Env("DESTINATION_EMAIL", ""),
		},
		MaxRequests:    env.EnvInt("RATE_LIMIT_MAX", 5),
		Window:         time.Duration(env.EnvInt("RATE_LIMIT_WINDOW_SECONDS", 600)) * time.Second,
		MinFill:        time.Duration(env.EnvInt("MIN_FILL_SECONDS", 3)) * time.Second,
		LimiterBackend: env.Env("LIMITER_BACKEND", "memory"),
		Redis: RedisCfg{
			Addr:     env.Env("REDIS_ADDR", "localhost:6379"),
			Password: env.Env("REDIS_PASSWORD", ""),
			DB:       env.EnvInt("REDIS_DB", 0),
		},
		SessionTTL: time.Duration(env.EnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
	}
}
