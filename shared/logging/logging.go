// Package logging builds the process-wide structured logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a sugared zap logger. Debug mode switches to the
// development config: console encoding and DebugLevel.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
