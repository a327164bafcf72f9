// Package device defines the switch capability set shared by the in-memory mock and the
// CLI-driven real switch, together with the port-security data model.
package device

import (
	"fmt"
	"strings"
	"time"
)

// ViolationAction is what the switch does when a port exceeds its secure MAC limit
type ViolationAction string

const (
	ViolationShutdown ViolationAction = "shutdown"
	ViolationRestrict ViolationAction = "restrict"
	ViolationProtect  ViolationAction = "protect"
)

// ParseViolationAction accepts the IOS keywords in any case
func ParseViolationAction(s string) (ViolationAction, error) {
	switch v := ViolationAction(strings.ToLower(strings.TrimSpace(s))); v {
	case ViolationShutdown, ViolationRestrict, ViolationProtect:
		return v, nil
	default:
		return "", fmt.Errorf("%w: violation action %q must be shutdown, restrict or protect", ErrInvalidParameter, s)
	}
}

// LinkStatus is the operational state of a port
type LinkStatus string

const (
	LinkUp          LinkStatus = "up"
	LinkDown        LinkStatus = "down"
	LinkErrDisabled LinkStatus = "err-disabled"
)

// Interface is the port-security view of one switch port
type Interface struct {
	Name                string          `json:"name"`
	PortSecurityEnabled bool            `json:"port_security"`
	MaxMacAddresses     int             `json:"max_mac_addresses"`
	ViolationAction     ViolationAction `json:"violation_action"`
	LearnedMacAddresses []string        `json:"learned_mac_addresses"`
	LinkStatus          LinkStatus      `json:"status"`
}

func (i Interface) clone() Interface {
	out := i
	out.LearnedMacAddresses = append([]string{}, i.LearnedMacAddresses...)
	return out
}

// DeviceInfo is static metadata about the connected switch
type DeviceInfo struct {
	Hostname string `json:"hostname"`
	Model    string `json:"model"`
	Version  string `json:"ios_version"`
	Uptime   string `json:"uptime"`
}

// SecurityOptions are the parameters of an enable request
type SecurityOptions struct {
	MaxMac          int
	ViolationAction ViolationAction
}

// DefaultSecurityOptions mirrors the IOS defaults: one MAC, shutdown on violation
func DefaultSecurityOptions() SecurityOptions {
	return SecurityOptions{MaxMac: 1, ViolationAction: ViolationShutdown}
}

// Validate defaults an empty violation action and rejects out-of-range settings
func (o SecurityOptions) Validate() (SecurityOptions, error) {
	if o.MaxMac < 1 {
		return o, fmt.Errorf("%w: maximum MAC addresses must be positive, got %d", ErrInvalidParameter, o.MaxMac)
	}
	if o.ViolationAction == "" {
		o.ViolationAction = ViolationShutdown
	}
	action, err := ParseViolationAction(string(o.ViolationAction))
	if err != nil {
		return o, err
	}
	o.ViolationAction = action
	return o, nil
}

// Credentials identify and authenticate a session with the real switch.
// They are fixed for the lifetime of a connection.
type Credentials struct {
	Host           string        `json:"host"`
	Username       string        `json:"username"`
	Password       string        `json:"-"`
	EnablePassword string        `json:"-"`
	Port           int           `json:"port"`
	Timeout        time.Duration `json:"timeout"`
	Transport      string        `json:"transport"`
}

// Switch is the capability set every backend implements
type Switch interface {
	// Connect opens the session; a nil error means connected. Idempotent.
	Connect() error
	// Disconnect releases the session; safe when not connected.
	Disconnect()
	IsConnected() bool
	InterfaceStatus(name string) (Interface, error)
	EnablePortSecurity(name string, opts SecurityOptions) (string, error)
	DisablePortSecurity(name string) (string, error)
	ClearPortSecurity(name string) (string, error)
	// ListInterfaces never fails; backends fall back to a default list.
	ListInterfaces() []string
	DeviceInfo() (DeviceInfo, error)
}

func enabledMessage(name string, opts SecurityOptions) string {
	return fmt.Sprintf("Port security enabled on %s with max MAC addresses: %d, violation action: %s", name, opts.MaxMac, opts.ViolationAction)
}

func disabledMessage(name string) string {
	return fmt.Sprintf("Port security disabled on %s", name)
}

func clearedMessage(name string) string {
	return fmt.Sprintf("Port security cleared on %s", name)
}
