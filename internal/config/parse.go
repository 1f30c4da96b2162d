package config

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sandevgo/vrmentor/pkg/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse fills a config struct from the environment and validates its `validate` tags.
func Parse[T any]() (*T, error) {
	c := new(T)
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return c, nil
}

func mustParse[T any](ctx context.Context, name string) *T {
	c, err := Parse[T]()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msgf("failed to parse %s config", name)
	}
	return c
}

// LoadEnvFile loads KEY=VALUE pairs from path without overriding the real environment.
// A missing file is not an error.
func LoadEnvFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	log.FromCtx(ctx).Debug().Str("path", path).Msg("environment loaded")
	return nil
}
