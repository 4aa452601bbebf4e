package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Debug mode switches to the development
// config with full verbosity; otherwise only warnings and up reach the
// console. The logger is passed into components, never held globally.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
