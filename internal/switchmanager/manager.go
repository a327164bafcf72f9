// Package switchmanager owns the single active switch session, the audit log and the runtime
// settings the panel can change.
package switchmanager

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carlosrabelo/portsec/internal/config"
	"github.com/carlosrabelo/portsec/internal/device"
	"github.com/carlosrabelo/portsec/internal/snmp"
)

// ErrCredentialsRequired is returned by LegacyConnect when a field is empty
var ErrCredentialsRequired = errors.New("IP, username, and password are required")

const (
	msgNotConnected = "Not connected to switch"
	// legacySummaryPorts limits how many ports LegacyConnect reports
	legacySummaryPorts = 5
)

// DeviceFactory builds an unconnected switch for the current mode
type DeviceFactory func(mock bool, creds device.Credentials) device.Switch

// ActionParams carries the optional arguments of an enable request.
// A nil MaxMac means one address.
type ActionParams struct {
	MaxMac          *int
	ViolationAction string
}

// Settings is the runtime configuration reported to the panel
type Settings struct {
	MockMode  bool   `json:"mock_mode"`
	SwitchIP  string `json:"switch_ip"`
	Connected bool   `json:"connected"`
	SessionID string `json:"session_id,omitempty"`
}

// SettingsUpdate changes the fields that are non-nil
type SettingsUpdate struct {
	MockMode *bool   `json:"mock_mode"`
	SwitchIP *string `json:"switch_ip"`
}

// LegacyResult is the outcome of a LegacyConnect call
type LegacyResult struct {
	Success bool
	Message string
	Output  string
}

// Manager coordinates the session with a single switch. All methods are safe for concurrent use;
// connect and disconnect hold the lock for their whole duration.
type Manager struct {
	mu sync.Mutex

	cfg      config.Config
	mockMode bool
	switchIP string

	device    device.Switch
	creds     *device.Credentials
	connected bool
	sessionID string

	logs      *AuditLog
	log       zerolog.Logger
	newDevice DeviceFactory
	now       func() time.Time
}

// Option customizes a Manager
type Option func(*Manager)

// WithDeviceFactory replaces the mock/remote selection
func WithDeviceFactory(f DeviceFactory) Option {
	return func(m *Manager) { m.newDevice = f }
}

// WithClock replaces the timestamp source of the audit log
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a disconnected Manager seeded from cfg
func New(cfg config.Config, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		mockMode: cfg.MockMode,
		switchIP: cfg.Switch.Target,
		logs:     NewAuditLog(AuditLogCapacity),
		log:      log.With().Str("component", "switchmanager").Logger(),
		now:      time.Now,
	}
	m.newDevice = m.defaultDevice
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) defaultDevice(mock bool, creds device.Credentials) device.Switch {
	if mock {
		return device.NewMockSwitch(m.cfg.MockLatency)
	}
	opts := []device.RemoteOption{device.WithLogger(m.log)}
	if m.cfg.Switch.SNMPCommunity != "" {
		opts = append(opts, device.WithSystemProber(snmp.NewProbe(creds.Host, m.cfg.Switch.SNMPCommunity, creds.Timeout)))
	}
	return device.NewRemoteSwitch(creds, opts...)
}

// AddLog appends an audit entry and mirrors it to the process logger
func (m *Manager) AddLog(message, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLog(message, level)
}

func (m *Manager) addLog(message, level string) {
	if level == "" {
		level = LevelInfo
	}
	entry := m.logs.Add(m.now(), level, message)
	event := m.log.Info()
	if level == LevelError {
		event = m.log.Error()
	}
	event.Str("source", "audit").Msg(entry.Message)
}

// Logs returns the n most recent audit entries, oldest first
func (m *Manager) Logs(n int) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs.Last(n)
}

// ClearLogs empties the audit log and records that it did so
func (m *Manager) ClearLogs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs.Clear()
	m.addLog("Logs cleared", LevelInfo)
}

// Connected reports whether a session is active
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropIfLost()
	return m.connected
}

// Credentials returns a copy of the credentials of the active session
func (m *Manager) Credentials() (device.Credentials, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return device.Credentials{}, false
	}
	return *m.creds, true
}

// Settings returns the runtime configuration
func (m *Manager) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropIfLost()
	return Settings{
		MockMode:  m.mockMode,
		SwitchIP:  m.switchIP,
		Connected: m.connected,
		SessionID: m.sessionID,
	}
}

// UpdateSettings applies a partial settings change. Changing the mode ends the active session.
func (m *Manager) UpdateSettings(update SettingsUpdate) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update.MockMode != nil {
		changed := *update.MockMode != m.mockMode
		m.mockMode = *update.MockMode
		m.addLog(fmt.Sprintf("Switched to %s mode", modeName(m.mockMode)), LevelInfo)
		if changed && m.connected {
			m.disconnect()
		}
	}
	if update.SwitchIP != nil {
		m.switchIP = strings.TrimSpace(*update.SwitchIP)
		m.addLog(fmt.Sprintf("Updated switch IP to %s", m.switchIP), LevelInfo)
	}
	return Settings{MockMode: m.mockMode, SwitchIP: m.switchIP, Connected: m.connected, SessionID: m.sessionID}
}

// Connect opens a session with the switch. Empty arguments fall back to the configured defaults
// and an active session is closed first. Failures never escape as errors.
func (m *Manager) Connect(ip, username, password string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connect(ip, username, password)
}

func (m *Manager) connect(ip, username, password string) (bool, string) {
	if m.connected {
		m.disconnect()
	}

	creds := m.resolveCredentials(ip, username, password)
	if m.mockMode {
		m.addLog("Using mock mode for testing", LevelInfo)
	} else {
		m.addLog(fmt.Sprintf("Connecting to real switch at %s", creds.Host), LevelInfo)
	}

	dev := m.newDevice(m.mockMode, creds)
	if err := dev.Connect(); err != nil {
		m.addLog(fmt.Sprintf("Failed to connect to switch: %v", err), LevelError)
		return false, fmt.Sprintf("Connection failed: %v", err)
	}

	m.device = dev
	m.creds = &creds
	m.connected = true
	m.sessionID = uuid.NewString()
	m.log.Debug().Str("session", m.sessionID).Str("host", creds.Host).Msg("Session opened")
	m.addLog("Successfully connected to switch", LevelInfo)
	return true, "Connected successfully"
}

func (m *Manager) resolveCredentials(ip, username, password string) device.Credentials {
	sw := m.cfg.Switch
	return device.Credentials{
		Host:           firstNonEmpty(ip, m.switchIP),
		Username:       firstNonEmpty(username, sw.Username),
		Password:       firstNonEmpty(password, sw.Password),
		EnablePassword: sw.EnablePassword,
		Port:           sw.Port,
		Timeout:        sw.Timeout,
		Transport:      sw.Transport,
	}
}

// Disconnect ends the active session. Calling it while disconnected does nothing.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnect()
}

func (m *Manager) disconnect() {
	if m.device == nil {
		return
	}
	m.release()
	m.addLog("Disconnected from switch", LevelInfo)
}

func (m *Manager) release() {
	m.device.Disconnect()
	m.device = nil
	m.creds = nil
	m.connected = false
	m.sessionID = ""
}

// dropIfLost ends the session when the switch went away underneath it
func (m *Manager) dropIfLost() bool {
	if m.device == nil || m.device.IsConnected() {
		return false
	}
	m.log.Debug().Str("session", m.sessionID).Msg("Session closed by switch")
	m.release()
	m.addLog("Connection to switch lost", LevelError)
	return true
}

// ExecutePortSecurityAction runs enable, disable, clear or status against iface.
// Every device error is logged and returned as a message.
func (m *Manager) ExecutePortSecurityAction(iface, action string, params ActionParams) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || m.dropIfLost() {
		return false, msgNotConnected
	}

	var (
		result string
		err    error
	)
	switch action {
	case "enable":
		opts := device.DefaultSecurityOptions()
		if params.MaxMac != nil {
			opts.MaxMac = *params.MaxMac
		}
		opts.ViolationAction = device.ViolationAction(params.ViolationAction)
		if result, err = m.device.EnablePortSecurity(iface, opts); err == nil {
			m.addLog(fmt.Sprintf("Enabled port security on %s", iface), LevelInfo)
		}
	case "disable":
		if result, err = m.device.DisablePortSecurity(iface); err == nil {
			m.addLog(fmt.Sprintf("Disabled port security on %s", iface), LevelInfo)
		}
	case "clear":
		if result, err = m.device.ClearPortSecurity(iface); err == nil {
			m.addLog(fmt.Sprintf("Cleared port security on %s", iface), LevelInfo)
		}
	case "status":
		if result, err = m.statusText(iface); err == nil {
			m.addLog(fmt.Sprintf("Retrieved status for %s", iface), LevelInfo)
		}
	default:
		return false, fmt.Sprintf("Unknown action: %s", action)
	}

	if err != nil {
		msg := fmt.Sprintf("Action failed: %v", err)
		m.addLog(msg, LevelError)
		m.dropIfLost()
		return false, msg
	}
	return true, result
}

func (m *Manager) statusText(iface string) (string, error) {
	status, err := m.device.InterfaceStatus(iface)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode status: %w", err)
	}
	return fmt.Sprintf("Port security status for %s:\n%s", iface, body), nil
}

// ListInterfaces returns the port names of the connected switch
func (m *Manager) ListInterfaces() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected || m.dropIfLost() {
		return nil, device.ErrNotConnected
	}
	names := m.device.ListInterfaces()
	if m.dropIfLost() {
		return nil, device.ErrNotConnected
	}
	return names, nil
}

// DeviceInfo returns the metadata of the connected switch
func (m *Manager) DeviceInfo() (device.DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected || m.dropIfLost() {
		return device.DeviceInfo{}, device.ErrNotConnected
	}
	info, err := m.device.DeviceInfo()
	if err != nil {
		m.addLog(fmt.Sprintf("Failed to read device info: %v", err), LevelError)
		m.dropIfLost()
		return device.DeviceInfo{}, err
	}
	return info, nil
}

// LegacyConnect connects to a real switch with explicit credentials and summarizes the
// port-security state of its first ports. The previous mode is restored when the connection fails.
func (m *Manager) LegacyConnect(ip, username, password string) (LegacyResult, error) {
	if ip == "" || username == "" || password == "" {
		return LegacyResult{}, ErrCredentialsRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previousMode := m.mockMode
	m.mockMode = false
	ok, message := m.connect(ip, username, password)
	if !ok {
		m.mockMode = previousMode
		return LegacyResult{Success: false, Message: message}, nil
	}
	return LegacyResult{Success: true, Message: message, Output: m.legacySummary(ip, username)}, nil
}

func (m *Manager) legacySummary(ip, username string) string {
	names := m.device.ListInterfaces()
	if len(names) > legacySummaryPorts {
		names = names[:legacySummaryPorts]
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		status, err := m.device.InterfaceStatus(name)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s: Status unknown", name))
			continue
		}
		state := "Disabled"
		if status.PortSecurityEnabled {
			state = "Enabled"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, state))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connection to %s successful!\n\n", ip)
	b.WriteString("Switch Information:\n")
	fmt.Fprintf(&b, "- IP Address: %s\n", ip)
	fmt.Fprintf(&b, "- Username: %s\n", username)
	fmt.Fprintf(&b, "- Mode: %s\n\n", modeLabel(m.mockMode))
	b.WriteString("Port Security Status:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nConnection established successfully. You can now use the port security actions above.")
	return b.String()
}

func modeName(mock bool) string {
	if mock {
		return "mock"
	}
	return "real"
}

func modeLabel(mock bool) string {
	if mock {
		return "Mock"
	}
	return "Real"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
