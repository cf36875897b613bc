package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from path into the process
// environment. Missing files are a silent no-op, matching deployments that
// rely purely on already-exported environment variables.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// MustLoadDotEnv loads environment variables from path, returning an error
// if the file does not exist.
func MustLoadDotEnv(path string) error {
	return godotenv.Load(path)
}

// LoadDotEnvFromFiles loads every existing file among paths without
// overriding variables that are already set, so for each variable the first
// definition wins: an already-exported value, then earlier files over later
// ones.
func LoadDotEnvFromFiles(paths ...string) error {
	existing := existingPaths(paths)
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// OverloadDotEnvFromFiles loads every existing file among paths, letting
// later files override earlier ones and already-exported variables
// (last-wins), useful for a base ".env" plus an environment-specific
// ".env.local" override.
func OverloadDotEnvFromFiles(paths ...string) error {
	existing := existingPaths(paths)
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Overload(existing...)
}

func existingPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig loads envPath (if present) into the environment, then builds an
// AppConfig from the resulting environment variables.
func LoadConfig(envPath string) (AppConfig, error) {
	if envPath != "" {
		if err := LoadDotEnv(envPath); err != nil {
			return AppConfig{}, fmt.Errorf("config: load .env: %w", err)
		}
	}
	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("config: load env vars: %w", err)
	}
	return envCfg.ToAppConfig(), nil
}
