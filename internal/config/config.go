// Package config loads the ingest function's configuration from the
// environment. Everything is injected into the controller at construction;
// there are no process-wide mutable globals.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// Config holds all parameters of the ingest function.
type Config struct {
	// Bucket is the S3 bucket holding raw uploads and Delta tables.
	Bucket string
	// TableName is the DynamoDB table holding dataset records.
	TableName string
	// DeltaInstanceID is the EC2 instance running the Delta Sharing server.
	DeltaInstanceID string
	// ShareHost is the public hostname of the Delta Sharing server.
	ShareHost string
	// SharePort is the Delta Sharing server port.
	SharePort int
	// LogLevel controls zerolog verbosity.
	LogLevel zerolog.Level
}

// Load reads the configuration from environment variables and validates
// required fields.
func Load() (*Config, error) {
	cfg := &Config{}

	var err error
	if cfg.Bucket, err = required("BUCKET_NAME"); err != nil {
		return nil, err
	}
	if cfg.TableName, err = required("DDB_TABLE_NAME"); err != nil {
		return nil, err
	}
	if cfg.DeltaInstanceID, err = required("DELTA_INSTANCE_ID"); err != nil {
		return nil, err
	}
	if cfg.ShareHost, err = required("SHARE_HOST"); err != nil {
		return nil, err
	}

	cfg.SharePort = 8080
	if v := os.Getenv("SHARE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("SHARE_PORT: invalid port %q", v)
		}
		cfg.SharePort = port
	}

	cfg.LogLevel = zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func required(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s must be set", name)
	}
	return v, nil
}
