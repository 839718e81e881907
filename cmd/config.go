package main

import "time"

type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=5000"`
	DBPath          string        `env:"DB_PATH,default=portal.db"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	TokenSecret     string        `env:"TOKEN_SECRET,required=true"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,default=24h"`
	FrontendURL     string        `env:"FRONTEND_URL,default=http://localhost:3000"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256"`
	PushTimeout     time.Duration `env:"PUSH_TIMEOUT,default=2s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=5s"`
	SecureCookies   bool          `env:"SECURE_COOKIES,default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
