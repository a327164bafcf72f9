package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportSSH    = "ssh"
	TransportTelnet = "telnet"

	DefaultSwitchIP          = "192.168.1.1"
	DefaultUsername          = "admin"
	DefaultPassword          = "admin"
	DefaultSSHPort           = 22
	DefaultTelnetPort        = 23
	DefaultConnectionTimeout = 30 * time.Second
	DefaultMockLatency       = time.Second
	DefaultWebHost           = "0.0.0.0"
	DefaultWebPort           = "5000"
)

// SwitchConfig holds the connection defaults for the managed switch
type SwitchConfig struct {
	Target         string        `yaml:"target"`
	Transport      string        `yaml:"transport"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	EnablePassword string        `yaml:"enable_password"`
	Timeout        time.Duration `yaml:"timeout"`
	SNMPCommunity  string        `yaml:"snmp_community"`
}

// WebConfig holds the HTTP listener settings
type WebConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Addr returns the listen address in host:port form
func (w WebConfig) Addr() string {
	return w.Host + ":" + w.Port
}

// LogConfig holds the process logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config defines the global configuration
type Config struct {
	MockMode    bool          `yaml:"mock_mode"`
	MockLatency time.Duration `yaml:"mock_latency"`
	Switch      SwitchConfig  `yaml:"switch"`
	Web         WebConfig     `yaml:"web"`
	Log         LogConfig     `yaml:"log"`
}

// Default returns the configuration used when neither a file nor the environment says otherwise
func Default() *Config {
	return &Config{
		MockMode:    true,
		MockLatency: DefaultMockLatency,
		Switch: SwitchConfig{
			Target:    DefaultSwitchIP,
			Transport: TransportSSH,
			Username:  DefaultUsername,
			Password:  DefaultPassword,
			Timeout:   DefaultConnectionTimeout,
		},
		Web: WebConfig{Host: DefaultWebHost, Port: DefaultWebPort},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file (if present), applies environment overrides and validates the result.
// A missing file is not an error so the panel can run from the environment alone.
func Load(yamlFile string) (*Config, error) {
	cfg := Default()
	if yamlFile != "" {
		data, err := os.ReadFile(yamlFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read YAML file %s: %w", yamlFile, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SWITCH_IP", &c.Switch.Target)
	str("SWITCH_USERNAME", &c.Switch.Username)
	str("SWITCH_PASSWORD", &c.Switch.Password)
	str("SWITCH_ENABLE_PASSWORD", &c.Switch.EnablePassword)
	str("SWITCH_TRANSPORT", &c.Switch.Transport)
	str("SNMP_COMMUNITY", &c.Switch.SNMPCommunity)
	str("WEB_HOST", &c.Web.Host)
	str("WEB_PORT", &c.Web.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)

	if v, ok := lookup("MOCK_MODE"); ok && v != "" {
		c.MockMode = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup("SSH_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SSH_PORT %q: must be a number", v)
		}
		c.Switch.Port = port
	}
	if v, ok := lookup("CONNECTION_TIMEOUT"); ok && v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONNECTION_TIMEOUT %q: must be a number of seconds", v)
		}
		c.Switch.Timeout = time.Duration(secs) * time.Second
	}
	return nil
}

func (c *Config) normalize() error {
	c.Switch.Transport = strings.ToLower(strings.TrimSpace(c.Switch.Transport))
	if c.Switch.Transport == "" {
		c.Switch.Transport = TransportSSH
	}
	if c.Switch.Transport != TransportSSH && c.Switch.Transport != TransportTelnet {
		return fmt.Errorf("transport %s is invalid, must be 'ssh' or 'telnet'", c.Switch.Transport)
	}
	if c.Switch.Port == 0 {
		c.Switch.Port = DefaultPortFor(c.Switch.Transport)
	}
	if c.Switch.Port < 1 || c.Switch.Port > 65535 {
		return fmt.Errorf("port %d is invalid, must be between 1 and 65535", c.Switch.Port)
	}
	if c.Switch.Timeout <= 0 {
		return fmt.Errorf("connection timeout must be positive, got %s", c.Switch.Timeout)
	}
	if c.MockLatency < 0 {
		return fmt.Errorf("mock latency must not be negative, got %s", c.MockLatency)
	}
	if c.Web.Host == "" {
		c.Web.Host = DefaultWebHost
	}
	if c.Web.Port == "" {
		c.Web.Port = DefaultWebPort
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log format %s is invalid, must be 'console' or 'json'", c.Log.Format)
	}
	return nil
}

// DefaultPortFor returns the well-known port of a transport
func DefaultPortFor(transport string) int {
	if transport == TransportTelnet {
		return DefaultTelnetPort
	}
	return DefaultSSHPort
}
