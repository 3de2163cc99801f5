package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/temirov/slw/internal/cli"
	"github.com/temirov/slw/internal/utils"
)

const (
	loggerInitializationFailedMessageFormat = "failed to initialize logger: %v"
	applicationExecutionFailedMessage       = "slw execution failed"
	changeExitCode                          = 1
)

// main is the entry point for the slw command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(zapcore.WarnLevel)
	if loggerInitializationError != nil {
		panic(fmt.Errorf(loggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer func() { _ = loggerInstance.Sync() }()
	applicationExecutionError := cli.Execute()
	if applicationExecutionError == nil {
		return
	}
	if errors.Is(applicationExecutionError, cli.ErrWouldChange) || errors.Is(applicationExecutionError, cli.ErrChanged) {
		loggerInstance.Info(applicationExecutionError.Error())
		_ = loggerInstance.Sync()
		os.Exit(changeExitCode)
	}
	loggerInstance.Fatal(applicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
}
