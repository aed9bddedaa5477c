package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// L is the process-wide logger.
var L = logrus.New()

func init() {
	L.SetOutput(os.Stdout)
	L.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	L.SetLevel(logrus.InfoLevel)
}
