package snmp

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// SNMPv2-MIB system group
const (
	OIDSysDescr  = ".1.3.6.1.2.1.1.1.0"
	OIDSysUpTime = ".1.3.6.1.2.1.1.3.0"
	OIDSysName   = ".1.3.6.1.2.1.1.5.0"
)

// SystemInfo is the subset of the system group shown on the panel
type SystemInfo struct {
	Name   string
	Descr  string
	Uptime string
}

// Getter is the part of gosnmp.GoSNMP the probe needs
type Getter interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
}

// Probe reads the system group of a switch over SNMP v2c
type Probe struct {
	Host      string
	Port      uint16
	Community string
	Timeout   time.Duration

	// dial is replaced in tests
	dial func(p *Probe) (Getter, func(), error)
}

// NewProbe returns a probe for host using the standard SNMP port
func NewProbe(host, community string, timeout time.Duration) *Probe {
	return &Probe{Host: host, Port: 161, Community: community, Timeout: timeout}
}

func defaultDial(p *Probe) (Getter, func(), error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = gosnmp.Default.Timeout
	}
	g := &gosnmp.GoSNMP{
		Target:    p.Host,
		Port:      p.Port,
		Community: p.Community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   1,
	}
	if err := g.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect error: %w", err)
	}
	return g, func() { g.Conn.Close() }, nil
}

// SystemInfo fetches sysName, sysDescr and sysUpTime in one request
func (p *Probe) SystemInfo() (SystemInfo, error) {
	dial := p.dial
	if dial == nil {
		dial = defaultDial
	}
	g, closeFn, err := dial(p)
	if err != nil {
		return SystemInfo{}, err
	}
	defer closeFn()

	packet, err := g.Get([]string{OIDSysName, OIDSysDescr, OIDSysUpTime})
	if err != nil {
		return SystemInfo{}, fmt.Errorf("snmp get on %s failed: %w", p.Host, err)
	}

	var info SystemInfo
	for _, pdu := range packet.Variables {
		switch strings.TrimPrefix(pdu.Name, ".") {
		case OIDSysName[1:]:
			info.Name = pduString(pdu)
		case OIDSysDescr[1:]:
			info.Descr = pduString(pdu)
		case OIDSysUpTime[1:]:
			if ticks, ok := pdu.Value.(uint32); ok {
				info.Uptime = FormatTimeTicks(ticks)
			}
		}
	}
	return info, nil
}

func pduString(pdu gosnmp.SnmpPDU) string {
	if pdu.Type != gosnmp.OctetString {
		return ""
	}
	b, ok := pdu.Value.([]byte)
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// FormatTimeTicks renders hundredths of a second the way IOS prints uptime
func FormatTimeTicks(ticks uint32) string {
	total := time.Duration(ticks) * 10 * time.Millisecond
	days := int(total / (24 * time.Hour))
	hours := int(total % (24 * time.Hour) / time.Hour)
	minutes := int(total % time.Hour / time.Minute)

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	parts = append(parts, plural(minutes, "minute"))
	return strings.Join(parts, ", ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
