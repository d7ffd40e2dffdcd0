package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	BaseCurrency string `env:"BASE_CURRENCY" envDefault:"MGA"`

	// Payment-plan defaults applied at invoice creation.
	FlexibleFinalDays     int     `env:"FLEXIBLE_FINAL_DAYS" envDefault:"30"`
	FlexibleMinimumPct    float64 `env:"FLEXIBLE_MINIMUM_PCT" envDefault:"10"`
	FlexibleMinimumFloor  float64 `env:"FLEXIBLE_MINIMUM_FLOOR" envDefault:"50000"`
	DefaultPenaltyRatePct float64 `env:"DEFAULT_PENALTY_RATE_PCT" envDefault:"2.5"`

	SweepIntervalS int `env:"SWEEP_INTERVAL_S" envDefault:"3600"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
