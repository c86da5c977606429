package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the application logger: production JSON encoding when running in
// prod, human-readable development encoding otherwise.
func New(isProduction bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if isProduction {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
