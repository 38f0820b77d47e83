package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// loadDotEnv loads environment variables from path. Existing process
// environment variables are not overridden. Only the default file may be
// missing.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) && path == defaultEnvFile {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}
