package device

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	interfaceRegex   = regexp.MustCompile(`^([A-Za-z-]+)(\d+(?:/\d+){0,2})$`)
	secureMacRegex   = regexp.MustCompile(`\b([0-9A-Fa-f]{4}\.[0-9A-Fa-f]{4}\.[0-9A-Fa-f]{4})\b`)
	uptimeRegex      = regexp.MustCompile(`(?m)^(\S+)\s+uptime is\s+(.+?)\s*$`)
	versionRegex     = regexp.MustCompile(`Version\s+([^\s,]+)`)
	modelNumberRegex = regexp.MustCompile(`(?mi)^\s*Model number\s*:\s*(\S+)`)
	cpuModelRegex    = regexp.MustCompile(`(?mi)^cisco\s+(\S+)\s+\(`)
	commandErrHints  = []string{
		"invalid input",
		"unknown command",
		"incomplete command",
		"ambiguous command",
		"unrecognized command",
		"invalid command",
		"syntax error",
		"cannot find command",
	}
)

// interfacePrefixes maps IOS short names to the long form used in configuration
var interfacePrefixes = map[string]string{
	"gi":  "GigabitEthernet",
	"fa":  "FastEthernet",
	"te":  "TenGigabitEthernet",
	"tw":  "TwoGigabitEthernet",
	"fo":  "FortyGigabitEthernet",
	"hu":  "HundredGigE",
	"eth": "Ethernet",
	"po":  "Port-channel",
}

// defaultInterfaces is returned when the real switch gives nothing usable
var defaultInterfaces = []string{"GigabitEthernet0/1", "GigabitEthernet0/2", "GigabitEthernet0/3"}

func validInterfaceName(name string) bool {
	return interfaceRegex.MatchString(name)
}

// expandInterfaceName turns "Gi0/1" into "GigabitEthernet0/1"; long or unknown names are kept
func expandInterfaceName(name string) string {
	match := interfaceRegex.FindStringSubmatch(name)
	if match == nil {
		return name
	}
	if long, ok := interfacePrefixes[strings.ToLower(match[1])]; ok {
		return long + match[2]
	}
	return name
}

// parseInterfaceNames reads the first column of "show interfaces status"
func parseInterfaceNames(output string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSeparatorLine(trimmed) {
			continue
		}
		fields := strings.Fields(trimmed)
		if !validInterfaceName(fields[0]) {
			continue
		}
		name := expandInterfaceName(fields[0])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// parsePortSecurityStatus reads "show port-security interface X". Fields the output does not
// carry keep their defaults: disabled, one MAC, shutdown, link down.
func parsePortSecurityStatus(name, output string) Interface {
	iface := Interface{
		Name:                name,
		MaxMacAddresses:     1,
		ViolationAction:     ViolationShutdown,
		LearnedMacAddresses: []string{},
		LinkStatus:          LinkDown,
	}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		switch key {
		case "port security":
			iface.PortSecurityEnabled = value == "enabled"
		case "port status":
			iface.LinkStatus = parsePortStatus(value)
		case "violation mode":
			if action, err := ParseViolationAction(value); err == nil {
				iface.ViolationAction = action
			}
		case "maximum mac addresses":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				iface.MaxMacAddresses = n
			}
		}
	}
	return iface
}

func parsePortStatus(value string) LinkStatus {
	switch {
	case strings.Contains(value, "shutdown"), strings.Contains(value, "err"):
		return LinkErrDisabled
	case strings.HasSuffix(value, "up"):
		return LinkUp
	default:
		return LinkDown
	}
}

// parseSecureAddresses collects the MACs of a secure address table in colon notation
func parseSecureAddresses(output string) []string {
	macs := make([]string, 0)
	for _, match := range secureMacRegex.FindAllStringSubmatch(output, -1) {
		macs = append(macs, formatPlainMac(strings.ToUpper(NormalizeMAC(match[1]))))
	}
	return macs
}

// parseShowVersion extracts what it can from "show version"
func parseShowVersion(output string) DeviceInfo {
	var info DeviceInfo
	if m := uptimeRegex.FindStringSubmatch(output); m != nil {
		info.Hostname = m[1]
		info.Uptime = m[2]
	}
	if m := versionRegex.FindStringSubmatch(output); m != nil {
		info.Version = m[1]
	}
	if m := modelNumberRegex.FindStringSubmatch(output); m != nil {
		info.Model = m[1]
	} else if m := cpuModelRegex.FindStringSubmatch(output); m != nil {
		info.Model = m[1]
	}
	return info
}

// NormalizeMAC strips colon and dot separators and lowercases a MAC address
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(mac, ":", ""), ".", ""))
}

func formatPlainMac(mac string) string {
	var builder strings.Builder
	for i := 0; i+1 < len(mac); i += 2 {
		if i > 0 {
			builder.WriteByte(':')
		}
		builder.WriteString(mac[i : i+2])
	}
	return builder.String()
}

func isIOSCommandError(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range commandErrHints {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if len(trimmed) < 3 {
		return false
	}
	for _, ch := range trimmed {
		if ch != '-' && ch != '=' && ch != '+' && ch != '*' {
			return false
		}
	}
	return true
}
