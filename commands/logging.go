package commands

import (
	"io"
	"os"

	"github.com/op/go-logging"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
	"github.com/tminor/lspansible/config"
	"gitlab.com/tozd/go/errors"
)

var logFormat = logging.MustStringFormatter(`%{time:15:04:05.000} %{level:.4s} [%{module}] %{message}`)

// configureLogging sets up our own loggers and the ones the protocol server
// uses. Both write to the same place at the same verbosity.
func configureLogging(configuration *config.Config) error {
	var writer io.Writer = os.Stderr
	var path *string
	if configuration.Log != "" {
		file, err := os.OpenFile(configuration.Log, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Errorf("opening log file: %w", err)
		}
		atexit.Register(func() {
			file.Close()
		})
		writer = file
		path = &configuration.Log
	}

	if configuration.Verbosity <= -4 {
		writer = io.Discard
	}
	backend := logging.AddModuleLevel(logging.NewBackendFormatter(logging.NewLogBackend(writer, "", 0), logFormat))
	backend.SetLevel(level(configuration.Verbosity), "")
	logging.SetBackend(backend)

	// Unbuffered, since we do not exit through kutil
	commonBackend := simple.NewBackend()
	commonBackend.Buffered = false
	commonlog.SetBackend(commonBackend)
	commonlog.Configure(configuration.Verbosity, path)

	return nil
}

// level maps verbosity the way commonlog does.
func level(verbosity int) logging.Level {
	switch {
	case verbosity <= -3:
		return logging.CRITICAL
	case verbosity == -2:
		return logging.ERROR
	case verbosity == -1:
		return logging.WARNING
	case verbosity == 0:
		return logging.NOTICE
	case verbosity == 1:
		return logging.INFO
	default:
		return logging.DEBUG
	}
}
