package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/webping/config"
)

const defaultEnvFile = ".env"

// addSettingsFlags registers the flags shared by commands that read a
// settings file.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to settings file (defaults apply when omitted)")
	cmd.Flags().String("env-file", defaultEnvFile, "dotenv file loaded before settings are expanded")
}

// loadSettings loads the env file and the settings file named by cmd's
// flags. A missing env file is only an error when it was asked for.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && (cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}

	s, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// chdirToExecutable moves the working directory next to the running binary.
// Failure is logged and otherwise ignored.
func chdirToExecutable(logger *slog.Logger) {
	exe, err := os.Executable()
	if err == nil {
		exe, err = filepath.EvalSymlinks(exe)
	}
	if err == nil {
		err = os.Chdir(filepath.Dir(exe))
	}
	if err != nil {
		logger.Warn("could not change to executable directory", "error", err)
		return
	}
	logger.Debug("changed working directory", "dir", filepath.Dir(exe))
}

// logSettings reports fallbacks and warnings from settings parsing.
func logSettings(logger *slog.Logger, s *config.Settings) {
	for _, fb := range s.Fallbacks {
		logger.Warn("setting fallback",
			"key", fb.Key,
			"raw", fb.Raw,
			"reason", fb.Reason,
			"effective", fb.Effective.String(),
		)
	}
	for _, w := range s.Warnings {
		logger.Warn("settings warning", "warning", w)
	}
}
