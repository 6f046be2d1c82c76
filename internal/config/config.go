// Package config loads the doorctl configuration from a YAML file with
// environment-variable overrides. Everything here is fixed for the life
// of the process; there is no runtime reconfiguration.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpelShniopel/doorctl/internal/auth"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Device DeviceConfig `yaml:"device"`
	Crypto CryptoConfig `yaml:"crypto"`
	API    APIConfig    `yaml:"api"`
	Audit  AuditConfig  `yaml:"audit"`
}

// ServerConfig locates the authorization server. An empty address means
// discover it via mDNS at startup.
type ServerConfig struct {
	Address          string `yaml:"address"`
	Port             int    `yaml:"port"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	ProbeIntervalSec int    `yaml:"probe_interval_sec"`
}

// DeviceConfig identifies this controller.
type DeviceConfig struct {
	UUID        string `yaml:"uuid"`
	ReaderIndex int    `yaml:"reader_index"`
}

// CryptoConfig pins the canonicalization and encryption variant. The
// encoding and subject must match what the server decrypts and compares
// against; they are deployment contract, not tuning knobs.
type CryptoConfig struct {
	Enabled        bool   `yaml:"enabled"`
	KeyHex         string `yaml:"key_hex"`
	KeyFile        string `yaml:"key_file"`
	UIDEncoding    string `yaml:"uid_encoding"`
	EncryptSubject string `yaml:"encrypt_subject"`
	RNGTier        string `yaml:"rng_tier"`
}

// APIConfig configures the local status API.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// AuditConfig configures the attempt log.
type AuditConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:             8443,
			TimeoutMs:        5000,
			ProbeIntervalSec: 30,
		},
		Crypto: CryptoConfig{
			Enabled:        true,
			UIDEncoding:    "hex-lower",
			EncryptSubject: "formatted",
			RNGTier:        "system",
		},
		API: APIConfig{
			Listen: "127.0.0.1:7070",
		},
		Audit: AuditConfig{
			MaxEntries: 1000,
		},
	}
}

// Load reads path (optional; empty means defaults plus environment),
// applies DOORCTL_* environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DOORCTL_SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("DOORCTL_SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("DOORCTL_DEVICE_UUID"); v != "" {
		c.Device.UUID = v
	}
	if v := os.Getenv("DOORCTL_KEY_HEX"); v != "" {
		c.Crypto.KeyHex = v
	}
	if v := os.Getenv("DOORCTL_KEY_FILE"); v != "" {
		c.Crypto.KeyFile = v
	}
	if v := os.Getenv("DOORCTL_LISTEN"); v != "" {
		c.API.Listen = v
	}
	if v := os.Getenv("DOORCTL_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
}

// Validate checks the configuration. The variant enums are parsed here so
// a typo fails at startup, not on the first card.
func (c *Config) Validate() error {
	if c.Device.UUID == "" {
		return fmt.Errorf("device.uuid is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.TimeoutMs <= 0 {
		return fmt.Errorf("server.timeout_ms must be positive")
	}
	if _, err := auth.ParseUIDEncoding(c.Crypto.UIDEncoding); err != nil {
		return fmt.Errorf("crypto.uid_encoding: %w", err)
	}
	if _, err := auth.ParseEncryptSubject(c.Crypto.EncryptSubject); err != nil {
		return fmt.Errorf("crypto.encrypt_subject: %w", err)
	}
	switch c.Crypto.RNGTier {
	case "", "system", "insecure-prng":
	default:
		return fmt.Errorf("crypto.rng_tier %q unknown (want system or insecure-prng)", c.Crypto.RNGTier)
	}
	if c.Crypto.Enabled {
		if c.Crypto.KeyHex == "" && c.Crypto.KeyFile == "" {
			return fmt.Errorf("crypto.enabled requires key_hex or key_file")
		}
		if _, err := c.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key resolves the pre-shared AES-128 key, or nil when encryption is
// disabled. The key never leaves this process.
func (c *Config) Key() ([]byte, error) {
	if !c.Crypto.Enabled {
		return nil, nil
	}
	keyHex := c.Crypto.KeyHex
	if keyHex == "" {
		data, err := os.ReadFile(c.Crypto.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		keyHex = strings.TrimSpace(string(data))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("key is not valid hex: %w", err)
	}
	if len(key) != auth.KeySize {
		return nil, fmt.Errorf("key must be %d bytes (%d hex chars), got %d bytes", auth.KeySize, 2*auth.KeySize, len(key))
	}
	return key, nil
}

// IVSource builds the configured RNG tier.
func (c *Config) IVSource() auth.IVSource {
	if c.Crypto.RNGTier == "insecure-prng" {
		return auth.NewInsecurePRNG()
	}
	return auth.SystemRand{}
}
