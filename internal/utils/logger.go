package utils

import "go.uber.org/zap"

// NewLogger builds a SugaredLogger matching the gin mode: structured
// JSON in release, human-readable otherwise.
func NewLogger(ginMode string) *zap.SugaredLogger {
	if ginMode == "release" {
		return zap.Must(zap.NewProduction()).Sugar()
	}
	return zap.Must(zap.NewDevelopment()).Sugar()
}
