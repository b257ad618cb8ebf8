package objectstore

import (
	"fmt"
	"net/url"
	"strings"
)

type Mode string

const (
	ModeS3          Mode = "s3"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
	ModeMemory      Mode = "memory"
)

type Config struct {
	Mode   Mode   `yaml:"mode" env:"OBJECT_STORAGE_MODE" env-default:"s3"`
	Bucket string `yaml:"bucket" env:"OBJECT_STORAGE_BUCKET"`

	// S3 and S3-compatible (MinIO) settings.
	Region       string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint     string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey    string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UsePathStyle bool   `yaml:"use_path_style" env:"S3_USE_PATH_STYLE"`

	// GCS settings.
	EmulatorHost    string `yaml:"emulator_host" env:"STORAGE_EMULATOR_HOST"`
	CredentialsFile string `yaml:"credentials_file" env:"GCS_CREDENTIALS_FILE"`
}

func (c Config) IsEmulatorMode() bool { return c.Mode == ModeGCSEmulator }

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode         ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingBucket       ConfigErrorCode = "missing_bucket"
	ConfigErrorMissingEmulatorHost ConfigErrorCode = "missing_emulator_host"
	ConfigErrorInvalidEmulatorHost ConfigErrorCode = "invalid_emulator_host"
	ConfigErrorInvalidEndpoint     ConfigErrorCode = "invalid_endpoint"
	ConfigErrorPartialCredentials  ConfigErrorCode = "partial_credentials"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Mode  string
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeS3, ModeGCS, ModeGCSEmulator, ModeMemory)
	case ConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires OBJECT_STORAGE_BUCKET to be set", e.Mode)
	case ConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ModeGCSEmulator)
	case ConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	case ConfigErrorInvalidEndpoint:
		return fmt.Sprintf("invalid S3_ENDPOINT=%q; expected absolute URL like http://minio:9000", e.Value)
	case ConfigErrorPartialCredentials:
		return "S3_ACCESS_KEY and S3_SECRET_KEY must be set together"
	default:
		return "invalid object storage config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Normalize lowercases the mode; an empty mode with an emulator host selects
// the emulator, otherwise s3.
func (c Config) Normalize() Config {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	c.EmulatorHost = strings.TrimRight(strings.TrimSpace(c.EmulatorHost), "/")
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if c.Mode == "" {
		if c.EmulatorHost != "" {
			c.Mode = ModeGCSEmulator
		} else {
			c.Mode = ModeS3
		}
	}
	return c
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeS3, ModeGCS, ModeGCSEmulator, ModeMemory:
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(c.Mode)}
	}
	if c.Mode == ModeMemory {
		return nil
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return &ConfigError{Code: ConfigErrorMissingBucket, Mode: string(c.Mode)}
	}
	switch c.Mode {
	case ModeS3:
		if c.Endpoint != "" && !isAbsoluteURL(c.Endpoint) {
			return &ConfigError{Code: ConfigErrorInvalidEndpoint, Mode: string(c.Mode), Value: c.Endpoint}
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			return &ConfigError{Code: ConfigErrorPartialCredentials, Mode: string(c.Mode)}
		}
	case ModeGCSEmulator:
		if c.EmulatorHost == "" {
			return &ConfigError{Code: ConfigErrorMissingEmulatorHost, Mode: string(c.Mode)}
		}
		if !isAbsoluteURL(c.EmulatorHost) {
			_, err := url.Parse(c.EmulatorHost)
			return &ConfigError{Code: ConfigErrorInvalidEmulatorHost, Mode: string(c.Mode), Value: c.EmulatorHost, Cause: err}
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.TrimSpace(u.Scheme) != "" && strings.TrimSpace(u.Host) != ""
}
