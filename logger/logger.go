package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger tagged with the season/racetrack context so
// log lines from multiple facility deployments stay distinguishable.
// Debug mode keeps JSON output but lowers the level to debug.
func New(debug bool, season, racetrack string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{
		"season":    season,
		"racetrack": racetrack,
	}
	return cfg.Build()
}
