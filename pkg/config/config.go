package config

import (
	"fmt"
	"time"
)

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[fxconvert]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

// Frankfurter configures the upstream exchange-rate API client.
type Frankfurter struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.frankfurter.app"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	UserAgent   string        `envconfig:"USER_AGENT" default:"fxconvert/1.0"`
}

// RateLimit bounds requests to the local web API, per client IP.
type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"20"`
	Window      time.Duration `envconfig:"WINDOW" default:"1s"`
}

type Currency struct {
	DisplayLimit int `envconfig:"DISPLAY_LIMIT" default:"50"`
}

type App struct {
	Env         string      `envconfig:"APP_ENV" default:"development"`
	Server      Server      `envconfig:"SERVER"`
	Log         Log         `envconfig:"LOG"`
	Frankfurter Frankfurter `envconfig:"FRANKFURTER"`
	RateLimit   RateLimit   `envconfig:"RATE_LIMIT"`
	Currency    Currency    `envconfig:"CURRENCY"`
}

// Addr returns the host:port the web API listens on.
func (a *App) Addr() string {
	return fmt.Sprintf("%s:%d", a.Server.Host, a.Server.Port)
}
