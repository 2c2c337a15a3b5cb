// Package logging builds the zap logger used by the command line tools.
package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/internal/config"
)

func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}

	return zcfg.Build()
}
