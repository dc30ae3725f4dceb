// Package logging wraps logrus behind the small package-level surface the
// rest of the gateway uses, with optional rotating file output.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = logrus.New()

// SetupBaseLogger configures the formatter and level. The level comes from
// LLM_BRIDGE_LOG_LEVEL (debug, info, warn, error); default is info.
func SetupBaseLogger() {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logger.SetLevel(logrus.InfoLevel)
	if lvl := os.Getenv("LLM_BRIDGE_LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			logger.SetLevel(parsed)
		}
	}
}

// ConfigureLogOutput switches output to a rotating file when toFile is set.
func ConfigureLogOutput(toFile bool, dir string) error {
	if !toFile {
		logger.SetOutput(os.Stderr)
		return nil
	}
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logging: create log dir: %w", err)
	}
	logger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(dir, "llm-bridge.log"),
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	return nil
}

func Debugf(format string, args ...any) { logger.Debugf(format, args...) }
func Infof(format string, args ...any)  { logger.Infof(format, args...) }
func Warnf(format string, args ...any)  { logger.Warnf(format, args...) }
func Errorf(format string, args ...any) { logger.Errorf(format, args...) }
func Fatalf(format string, args ...any) { logger.Fatalf(format, args...) }

// GinLogger returns gin middleware that logs each request through logrus.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(start).Round(time.Millisecond).String(),
		}).Info("request")
	}
}

// GinRecovery returns gin middleware that logs panics through logrus and
// responds 500.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorf("panic recovered: %v", recovered)
		c.AbortWithStatus(500)
	})
}
