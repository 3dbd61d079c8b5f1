// Package config loads rentbook settings from viper and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a configured path. Environment variables are expanded
// first so a variable may itself hold a ~ path; the leading ~ then becomes
// the home directory. Other users' homes (~alice) are left as written.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "" {
		return ""
	}

	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return filepath.Clean(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Join(home, rest)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
