package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// loadEnv imports variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
