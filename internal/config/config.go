package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable viper reads.
const EnvPrefix = "RENTBOOK"

// App is the resolved application configuration.
type App struct {
	DatabasePath string
	FilesRoot    string
	AuthSecret   string
	AuthToken    string
	Currency     string
	LogLevel     slog.Level
	LogFormat    string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/rentbook/rentbook.db")
	v.SetDefault("files.root", "$HOME/.local/share/rentbook/files")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("report.currency", "USD")
	v.SetDefault("sheets.token_file", "$HOME/.config/rentbook/sheets_token.json")
}

// BindEnv loads .env files into the process environment and makes v read
// RENTBOOK_ variables, with dots in keys mapped to underscores.
// Missing .env files are ignored; variables already set win.
func BindEnv(v *viper.Viper, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if isNotExist(err) {
				slog.Debug("No .env file found", "file", f)
				continue
			}
			return fmt.Errorf("%w: env file %s: %w", common.ErrInvalidConfig, f, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return nil
}

// Load resolves the application configuration from v.
func Load(v *viper.Viper) (*App, error) {
	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, err
	}

	app := &App{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		FilesRoot:    ExpandPath(v.GetString("files.root")),
		AuthSecret:   v.GetString("auth.secret"),
		AuthToken:    v.GetString("auth.token"),
		Currency:     strings.ToUpper(v.GetString("report.currency")),
		LogLevel:     level,
		LogFormat:    v.GetString("logging.format"),
	}

	if app.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if app.FilesRoot == "" {
		app.FilesRoot = filepath.Join(filepath.Dir(app.DatabasePath), "files")
	}
	return app, nil
}
