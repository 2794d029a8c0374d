package main

import (
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("reocamara")

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "reocamara",
		Short: "Telegram relay for a PTZ network camera",
		Long: `reocamara answers Telegram commands by moving a PTZ camera through stored
presets while recording the stream, then posts the clip or snapshot to the chat
and deletes it again after a short delay.

Examples:
  reocamara serve                          # Run the bot and the status API
  reocamara serve --config reocamara.yaml  # Use an explicit config file
  reocamara presets                        # List the presets stored on the camera`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default ./reocamara.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (DEBUG, INFO, WARNING, ERROR); overrides the config file")

	rootCmd.AddCommand(serveCmd, presetsCmd)
}

// InitLogger sets up the go-logging backend for every package
func InitLogger(level string) error {
	baseBackend := logging.NewLogBackend(os.Stdout, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s} %{module} %{message}`,
	)
	backendFormatter := logging.NewBackendFormatter(baseBackend, format)

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	levelCode, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(levelCode, "")

	logging.SetBackend(backendLeveled)
	return nil
}

func effectiveLogLevel(configured string) string {
	if logLevel != "" {
		return logLevel
	}
	return configured
}
