package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/code-slammer/sjoh/rpc"
)

// config is read from the environment (optionally seeded from .env) and
// then overridden by flags.
type config struct {
	URL      string
	Codec    string
	LogLevel string
	MaxBody  int64
	Listen   string
	Timeout  time.Duration
	ArgsFile string
	Raw      bool
	NoColor  bool
}

// loadEnv loads path into the process environment. A missing file is fine.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func defaultConfig() (config, error) {
	cfg := config{
		URL:      os.Getenv("SJOH_URL"),
		Codec:    envOr("SJOH_CODEC", "json"),
		LogLevel: envOr("SJOH_LOG_LEVEL", "warning"),
		MaxBody:  rpc.DefaultMaxBodySize,
		Listen:   envOr("SJOH_LISTEN", "127.0.0.1:8080"),
		Timeout:  30 * time.Second,
	}
	if v := os.Getenv("SJOH_MAX_BODY"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid SJOH_MAX_BODY %q: %w", v, err)
		}
		cfg.MaxBody = n
	}
	if v := os.Getenv("SJOH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SJOH_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func (c *config) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Codec, "codec", c.Codec, "wire codec: json, msgpack or cbor")
	flagSet.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (trace, debug, info, warning, error)")
	flagSet.Int64Var(&c.MaxBody, "max-body", c.MaxBody, "maximum request/response body size in bytes")
}

func codecByName(name string) (rpc.Codec, error) {
	switch name {
	case "json", "":
		return &rpc.JSONCodec{}, nil
	case "msgpack":
		return &rpc.MsgPackCodec{}, nil
	case "cbor":
		return &rpc.CBORCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

func newLogger(level string, out io.Writer) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logrusLogger := logrus.New()
	logrusLogger.SetOutput(out)
	logrusLogger.SetLevel(lvl)
	return logrus.NewEntry(logrusLogger), nil
}
