package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.MockMode {
		t.Error("Expected mock mode to be enabled by default")
	}
	if cfg.Switch.Target != DefaultSwitchIP {
		t.Errorf("Expected target %s, got %s", DefaultSwitchIP, cfg.Switch.Target)
	}
	if cfg.Switch.Port != DefaultSSHPort {
		t.Errorf("Expected port %d, got %d", DefaultSSHPort, cfg.Switch.Port)
	}
	if cfg.Switch.Timeout != DefaultConnectionTimeout {
		t.Errorf("Expected timeout %s, got %s", DefaultConnectionTimeout, cfg.Switch.Timeout)
	}
	if cfg.Web.Addr() != "0.0.0.0:5000" {
		t.Errorf("Expected listen address 0.0.0.0:5000, got %s", cfg.Web.Addr())
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mock_mode: false
mock_latency: 0s
switch:
  target: 10.0.0.5
  transport: TELNET
  username: netops
  password: secret
  enable_password: enable
  timeout: 5s
web:
  port: "8080"
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MockMode {
		t.Error("Expected mock mode to be disabled")
	}
	if cfg.Switch.Transport != TransportTelnet {
		t.Errorf("Expected transport telnet, got %s", cfg.Switch.Transport)
	}
	if cfg.Switch.Port != DefaultTelnetPort {
		t.Errorf("Expected telnet default port %d, got %d", DefaultTelnetPort, cfg.Switch.Port)
	}
	if cfg.Switch.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", cfg.Switch.Timeout)
	}
	if cfg.Web.Addr() != "0.0.0.0:8080" {
		t.Errorf("Expected listen address 0.0.0.0:8080, got %s", cfg.Web.Addr())
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected json log format, got %s", cfg.Log.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOCK_MODE", "FALSE")
	t.Setenv("SWITCH_IP", "172.16.0.1")
	t.Setenv("SWITCH_USERNAME", "ops")
	t.Setenv("SSH_PORT", "2222")
	t.Setenv("CONNECTION_TIMEOUT", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MockMode {
		t.Error("Expected MOCK_MODE=FALSE to disable mock mode")
	}
	if cfg.Switch.Target != "172.16.0.1" {
		t.Errorf("Expected target 172.16.0.1, got %s", cfg.Switch.Target)
	}
	if cfg.Switch.Username != "ops" {
		t.Errorf("Expected username ops, got %s", cfg.Switch.Username)
	}
	if cfg.Switch.Password != DefaultPassword {
		t.Errorf("Expected default password to be kept, got %s", cfg.Switch.Password)
	}
	if cfg.Switch.Port != 2222 {
		t.Errorf("Expected port 2222, got %d", cfg.Switch.Port)
	}
	if cfg.Switch.Timeout != 12*time.Second {
		t.Errorf("Expected timeout 12s, got %s", cfg.Switch.Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non numeric port", env: map[string]string{"SSH_PORT": "abc"}},
		{name: "port out of range", env: map[string]string{"SSH_PORT": "70000"}},
		{name: "non numeric timeout", env: map[string]string{"CONNECTION_TIMEOUT": "soon"}},
		{name: "zero timeout", env: map[string]string{"CONNECTION_TIMEOUT": "0"}},
		{name: "unknown transport", env: map[string]string{"SWITCH_TRANSPORT": "netconf"}},
		{name: "unknown log format", env: map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Expected Load() to fail")
			}
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("switch: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error for malformed YAML")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MOCK_MODE", "SWITCH_IP", "SWITCH_USERNAME", "SWITCH_PASSWORD", "SWITCH_ENABLE_PASSWORD",
		"SWITCH_TRANSPORT", "SSH_PORT", "CONNECTION_TIMEOUT", "SNMP_COMMUNITY",
		"WEB_HOST", "WEB_PORT", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}
