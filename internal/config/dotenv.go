package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the environment variables file inside the specflow
// directory.
const EnvFileName = ".env"

// LoadDotEnv loads environment variables from .specflow/.env if it
// exists. godotenv.Load never overrides variables already set in the
// environment, so the process environment keeps priority. A missing
// file is not an error.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, Dir, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(envPath)
}

// LoadDotEnvFromCwd loads .specflow/.env relative to the current
// working directory.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return LoadDotEnv(cwd)
}
