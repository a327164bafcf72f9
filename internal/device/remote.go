package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carlosrabelo/portsec/internal/snmp"
	"github.com/carlosrabelo/portsec/internal/transport"
)

// SystemProber reads device metadata out of band
type SystemProber interface {
	SystemInfo() (snmp.SystemInfo, error)
}

// ClientFactory builds an unconnected transport session
type ClientFactory func(opts transport.Options) (transport.Client, error)

// RemoteSwitch drives a Cisco IOS switch over an SSH or Telnet CLI session
type RemoteSwitch struct {
	creds     Credentials
	log       zerolog.Logger
	newClient ClientFactory
	prober    SystemProber
	client    transport.Client
}

// RemoteOption customizes a RemoteSwitch
type RemoteOption func(*RemoteSwitch)

// WithLogger sets the logger used for driver diagnostics
func WithLogger(log zerolog.Logger) RemoteOption {
	return func(r *RemoteSwitch) { r.log = log }
}

// WithClientFactory replaces the transport constructor
func WithClientFactory(f ClientFactory) RemoteOption {
	return func(r *RemoteSwitch) { r.newClient = f }
}

// WithSystemProber enables out-of-band metadata lookups
func WithSystemProber(p SystemProber) RemoteOption {
	return func(r *RemoteSwitch) { r.prober = p }
}

// NewRemoteSwitch returns an unconnected driver for creds
func NewRemoteSwitch(creds Credentials, opts ...RemoteOption) *RemoteSwitch {
	r := &RemoteSwitch{
		creds:     creds,
		log:       zerolog.Nop(),
		newClient: transport.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect opens the CLI session. A missing driver for the transport yields ErrDriverUnavailable.
func (r *RemoteSwitch) Connect() error {
	if r.IsConnected() {
		return nil
	}
	client, err := r.newClient(transport.Options{
		Transport:      r.creds.Transport,
		Host:           r.creds.Host,
		Port:           r.creds.Port,
		Username:       r.creds.Username,
		Password:       r.creds.Password,
		EnablePassword: r.creds.EnablePassword,
		Timeout:        r.creds.Timeout,
		Logger:         r.log,
	})
	if err != nil {
		if errors.Is(err, transport.ErrUnsupportedTransport) {
			err = fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
		}
		r.log.Error().Err(err).Str("host", r.creds.Host).Msg("No session driver for switch")
		return err
	}
	if err := client.Connect(); err != nil {
		r.log.Error().Err(err).Str("host", r.creds.Host).Msg("Failed to connect to switch")
		return &OperationError{Op: "connect", Err: err}
	}
	r.client = client
	return nil
}

func (r *RemoteSwitch) Disconnect() {
	if r.client != nil {
		r.client.Disconnect()
		r.client = nil
	}
}

func (r *RemoteSwitch) IsConnected() bool {
	return r.client != nil && r.client.IsConnected()
}

// ExecuteCommand runs one privileged-mode command and returns its output
func (r *RemoteSwitch) ExecuteCommand(cmd string) (string, error) {
	if !r.IsConnected() {
		return "", ErrNotConnected
	}
	output, err := r.client.ExecuteCommand(cmd)
	if err != nil {
		r.log.Error().Err(err).Str("command", cmd).Msg("Command execution failed")
		if !r.client.IsConnected() {
			r.log.Error().Str("host", r.creds.Host).Msg("Session to switch lost")
			r.Disconnect()
		}
		return "", err
	}
	return output, nil
}

// sendConfigSet wraps commands in configure terminal / end. A rejected "interface" line means
// the switch does not have that port.
func (r *RemoteSwitch) sendConfigSet(iface string, commands []string) error {
	if _, err := r.ExecuteCommand("configure terminal"); err != nil {
		return err
	}
	var failure error
	for _, cmd := range commands {
		output, err := r.ExecuteCommand(cmd)
		if err != nil {
			failure = err
			break
		}
		if isIOSCommandError(output) {
			if strings.HasPrefix(cmd, "interface ") {
				failure = notFound(iface)
			} else {
				failure = fmt.Errorf("command %q rejected: %s", cmd, strings.TrimSpace(output))
			}
			break
		}
	}
	if _, err := r.ExecuteCommand("end"); err != nil && failure == nil {
		failure = err
	}
	return failure
}

func (r *RemoteSwitch) checkName(name string) error {
	if !validInterfaceName(name) {
		return notFound(name)
	}
	return nil
}

// interfaceExists asks the switch about name without changing anything
func (r *RemoteSwitch) interfaceExists(name string) error {
	output, err := r.ExecuteCommand("show interfaces " + name + " status")
	if err != nil {
		return opError("status", name, err)
	}
	if isIOSCommandError(output) {
		return notFound(name)
	}
	return nil
}

// InterfaceStatus queries the port-security state and secure address table of one port
func (r *RemoteSwitch) InterfaceStatus(name string) (Interface, error) {
	if err := r.checkName(name); err != nil {
		return Interface{}, err
	}
	output, err := r.ExecuteCommand("show port-security interface " + name)
	if err != nil {
		return Interface{}, opError("status", name, err)
	}
	if isIOSCommandError(output) {
		return Interface{}, notFound(name)
	}
	iface := parsePortSecurityStatus(name, output)

	addresses, err := r.ExecuteCommand("show port-security interface " + name + " address")
	switch {
	case err != nil:
		r.log.Warn().Err(err).Str("interface", name).Msg("Secure address table unavailable")
	case isIOSCommandError(addresses):
		r.log.Warn().Str("interface", name).Msg("Secure address table not supported")
	default:
		iface.LearnedMacAddresses = parseSecureAddresses(addresses)
	}
	return iface, nil
}

func (r *RemoteSwitch) EnablePortSecurity(name string, opts SecurityOptions) (string, error) {
	if err := r.checkName(name); err != nil {
		return "", err
	}
	opts, err := opts.Validate()
	if err != nil {
		// an unknown port wins over bad options
		if exists := r.interfaceExists(name); exists != nil {
			return "", exists
		}
		return "", err
	}
	commands := []string{
		"interface " + name,
		"switchport port-security",
		fmt.Sprintf("switchport port-security maximum %d", opts.MaxMac),
		fmt.Sprintf("switchport port-security violation %s", opts.ViolationAction),
		"exit",
	}
	if err := r.sendConfigSet(name, commands); err != nil {
		return "", opError("enable", name, err)
	}
	return enabledMessage(name, opts), nil
}

func (r *RemoteSwitch) DisablePortSecurity(name string) (string, error) {
	if err := r.checkName(name); err != nil {
		return "", err
	}
	commands := []string{
		"interface " + name,
		"no switchport port-security",
		"exit",
	}
	if err := r.sendConfigSet(name, commands); err != nil {
		return "", opError("disable", name, err)
	}
	return disabledMessage(name), nil
}

// ClearPortSecurity drops the sticky addresses and bounces the port if a violation shut it down
func (r *RemoteSwitch) ClearPortSecurity(name string) (string, error) {
	if err := r.checkName(name); err != nil {
		return "", err
	}
	output, err := r.ExecuteCommand("clear port-security sticky interface " + name)
	if err != nil {
		return "", opError("clear", name, err)
	}
	if isIOSCommandError(output) {
		return "", notFound(name)
	}

	status, err := r.InterfaceStatus(name)
	if err != nil {
		r.log.Warn().Err(err).Str("interface", name).Msg("Could not verify link state after clear")
		return clearedMessage(name), nil
	}
	if status.LinkStatus == LinkErrDisabled {
		if err := r.sendConfigSet(name, []string{"interface " + name, "shutdown", "no shutdown", "exit"}); err != nil {
			return "", opError("clear", name, err)
		}
	}
	return clearedMessage(name), nil
}

// ListInterfaces reads "show interfaces status" and falls back to a fixed list
func (r *RemoteSwitch) ListInterfaces() []string {
	output, err := r.ExecuteCommand("show interfaces status")
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to get interfaces, using defaults")
		return append([]string{}, defaultInterfaces...)
	}
	names := parseInterfaceNames(output)
	if len(names) == 0 {
		return append([]string{}, defaultInterfaces...)
	}
	return names
}

// DeviceInfo parses "show version" and fills gaps from SNMP when a prober is configured
func (r *RemoteSwitch) DeviceInfo() (DeviceInfo, error) {
	var info DeviceInfo
	output, cliErr := r.ExecuteCommand("show version")
	if cliErr == nil {
		info = parseShowVersion(output)
	}
	complete := info.Hostname != "" && info.Model != "" && info.Version != "" && info.Uptime != ""
	if complete || r.prober == nil {
		if cliErr != nil {
			return DeviceInfo{}, opError("device info", "", cliErr)
		}
		return info, nil
	}

	sys, err := r.prober.SystemInfo()
	if err != nil {
		r.log.Warn().Err(err).Str("host", r.creds.Host).Msg("SNMP probe failed")
		if cliErr != nil {
			return DeviceInfo{}, opError("device info", "", cliErr)
		}
		return info, nil
	}
	fromSNMP := parseShowVersion(sys.Descr)
	if info.Hostname == "" {
		info.Hostname = sys.Name
	}
	if info.Uptime == "" {
		info.Uptime = sys.Uptime
	}
	if info.Version == "" {
		info.Version = fromSNMP.Version
	}
	if info.Model == "" {
		info.Model = fromSNMP.Model
	}
	return info, nil
}
