package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvLogLevel      = "MOVEMOUSE_LOG_LEVEL"
	EnvLogFile       = "MOVEMOUSE_LOG_FILE"
	EnvProfile       = "MOVEMOUSE_PROFILE"
	EnvListen        = "MOVEMOUSE_LISTEN"
	EnvToken         = "MOVEMOUSE_TOKEN"
	EnvJournal       = "MOVEMOUSE_JOURNAL"
	EnvRetention     = "MOVEMOUSE_JOURNAL_RETENTION"
	EnvBarkURL       = "MOVEMOUSE_BARK_URL"
	EnvNotifications = "MOVEMOUSE_NOTIFICATIONS"
)

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
		if dir, err := Dir(); err == nil {
			files = append(files, filepath.Join(dir, ".env"))
		}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides s with MOVEMOUSE_* variables. Unparseable values are
// ignored and the file setting is kept.
func ApplyEnv(s *Settings) {
	s.Log.Level = getEnvString(EnvLogLevel, s.Log.Level)
	s.Log.File = getEnvString(EnvLogFile, s.Log.File)
	s.Server.Listen = getEnvString(EnvListen, s.Server.Listen)
	s.Server.Token = getEnvString(EnvToken, s.Server.Token)
	s.Journal.Path = getEnvString(EnvJournal, s.Journal.Path)
	s.Journal.Retention = getEnvDuration(EnvRetention, s.Journal.Retention)
	s.Notifications.Disabled = !getEnvBool(EnvNotifications, !s.Notifications.Disabled)

	if url, ok := os.LookupEnv(EnvBarkURL); ok {
		s.Notifications.Bark.URL = url
		s.Notifications.Bark.Enabled = url != ""
	}
	if ref := getEnvString(EnvProfile, ""); ref != "" {
		// An unknown name keeps the file's choice.
		_ = s.SetActiveProfile(ref)
	}
}

func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}
