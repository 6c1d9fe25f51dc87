package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

func Run(args []string) error {
	ctx := context.Background()
	options, err := Load(ctx, args)
	if err != nil {
		return err
	}
	service, err := New(options, os.Stdout)
	if err != nil {
		return err
	}
	return service.Run(ctx)
}

// Load resolves options from args, the environment and the config file.
func Load(ctx context.Context, args []string) (*Options, error) {
	// the env file has to be loaded before flags resolve env defaults
	preliminary := &Options{}
	if _, err := flags.NewParser(preliminary, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return nil, err
	}
	if err := loadEnv(preliminary.EnvFile); err != nil {
		return nil, err
	}
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return nil, err
	}
	if options.ConfigURL != "" {
		fromFile, err := loadConfig(ctx, options.ConfigURL)
		if err != nil {
			return nil, err
		}
		options.Inherit(fromFile)
	}
	if len(options.URLs) == 0 {
		return nil, errors.New("at least one URL is required")
	}
	options.Init()
	if options.Debug {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return options, nil
}

func loadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func loadConfig(ctx context.Context, URL string) (*Options, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	ret := &Options{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	return ret, nil
}
