package config

import (
	"os"
	"strings"
	"time"

	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/ignatij/sheetflow/pkg/service"
	"github.com/ignatij/sheetflow/pkg/sheets"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is resolved once at startup from an optional YAML file, a .env
// file and SHEETFLOW_* environment variables, in increasing precedence.
type Config struct {
	EndpointURL    string                    `yaml:"endpoint_url" json:"endpoint_url"`       // Apps Script web app URL
	EndpointPrefix string                    `yaml:"endpoint_prefix" json:"endpoint_prefix"` // Required prefix of EndpointURL
	SheetURL       string                    `yaml:"sheet_url" json:"sheet_url"`             // Google Sheet the script writes to
	TransportMode  sheets.TransportMode      `yaml:"transport_mode" json:"transport_mode"`   // "observed" or "opaque"
	FormatMode     sheets.FormatMode         `yaml:"format_mode" json:"format_mode"`         // "preformatted" or "raw"
	SuccessMessage sheets.SuccessMessageMode `yaml:"success_message" json:"success_message"` // "fixed" or "remote"
	Timeout        time.Duration             `yaml:"timeout" json:"timeout"`
	SchemaRevision schema.Revision           `yaml:"schema_revision" json:"schema_revision"` // "current" or "legacy"
	AutoHours      bool                      `yaml:"auto_hours" json:"auto_hours"`
	JournalDSN     string                    `yaml:"journal_dsn" json:"journal_dsn"` // sqlite path, postgres:// URL or "memory"
	Port           string                    `yaml:"port" json:"port"`
}

const (
	DefaultJournalDSN = "sheetflow.db"
	DefaultPort       = "8080"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		EndpointPrefix: sheets.DefaultEndpointPrefix,
		TransportMode:  sheets.ObservedTransport,
		FormatMode:     sheets.PreformattedPayload,
		SuccessMessage: sheets.FixedSuccessMessage,
		Timeout:        sheets.DefaultTimeout,
		SchemaRevision: schema.CurrentRevision,
		JournalDSN:     DefaultJournalDSN,
		Port:           DefaultPort,
	}
}

// Load resolves the configuration. path may be empty, in which case
// SHEETFLOW_CONFIG names the file, if any.
func Load(path string) (*Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("SHEETFLOW_CONFIG")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// Validate rejects unknown mode names and unusable values.
func (c *Config) Validate() error {
	switch c.TransportMode {
	case sheets.ObservedTransport, sheets.OpaqueTransport:
	default:
		return errors.Errorf("invalid transport_mode '%s'; must be 'observed' or 'opaque'", c.TransportMode)
	}
	switch c.FormatMode {
	case sheets.PreformattedPayload, sheets.RawPayload:
	default:
		return errors.Errorf("invalid format_mode '%s'; must be 'preformatted' or 'raw'", c.FormatMode)
	}
	switch c.SuccessMessage {
	case sheets.FixedSuccessMessage, sheets.RemoteSuccessMessage:
	default:
		return errors.Errorf("invalid success_message '%s'; must be 'fixed' or 'remote'", c.SuccessMessage)
	}
	if _, err := schema.NewCatalog(c.SchemaRevision); err != nil {
		return errors.Wrap(err, "invalid schema_revision")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("invalid timeout '%s'; must be positive", c.Timeout)
	}
	if strings.TrimSpace(c.EndpointPrefix) == "" {
		return errors.New("endpoint_prefix must not be empty")
	}
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	return nil
}

// ClientOptions maps the configuration onto the submitter options.
func (c *Config) ClientOptions() sheets.Options {
	return sheets.Options{
		Transport:      c.TransportMode,
		Format:         c.FormatMode,
		SuccessMessage: c.SuccessMessage,
		EndpointPrefix: c.EndpointPrefix,
		Timeout:        c.Timeout,
	}
}

// Settings returns the per-session values the controller needs.
func (c *Config) Settings() service.Settings {
	return service.Settings{
		EndpointURL: c.EndpointURL,
		SheetURL:    c.SheetURL,
		AutoHours:   c.AutoHours,
	}
}
