package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/actrlabs/actrgo/config"
)

// initObservability applies the observability section to the process
// logger.
func initObservability(obs config.ObservabilityConfig) {
	level, err := logrus.ParseLevel(string(obs.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if obs.Format == config.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
