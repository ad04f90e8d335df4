package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file, following
// os.UserConfigDir (XDG_CONFIG_HOME on Linux):
// ~/.config/codebuilder/config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "codebuilder", "config.yml"), nil
}

func displayUserConfigPath() string {
	p, err := UserConfigPath()
	if err != nil {
		return "~/.config/codebuilder/config.yml"
	}
	return p
}
