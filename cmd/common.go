package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ConfigFlag  = "config"
	DataDirFlag = "data-dir"
)

const (
	AmountFlag     = "amount"
	CurrencyFlag   = "currency"
	NetworkFlag    = "network"
	GenesisOutFlag = "out"
	SecretsOutFlag = "secrets-out"
	WorkersFlag    = "workers"
	PortFlag       = "port"
)

// SetupLogger initializes a zap logger configured for dev or prod
func SetupLogger(level string) *zap.SugaredLogger {
	var cfg zap.Config

	isDev := true

	mode := os.Getenv("MODE")
	if mode == "prod" {
		isDev = false
	}

	if isDev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableCaller = true
	}

	if parsed, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := cfg.Build()
	if err != nil {
		// Fallback to a simple logger if the configured one fails
		fallback := zap.NewExample().Sugar()
		fallback.Warnf("Failed to create configured logger: %v", err)

		return fallback
	}

	return logger.Sugar()
}
