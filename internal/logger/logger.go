// Package logger builds the application's structured logger.
package logger

import "go.uber.org/zap"

// New returns a JSON production logger writing to stdout.  In the "dev"
// environment a human-readable development logger is used instead.
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	return config.Build()
}
