package device

import (
	"sync"
	"time"
)

// MockSwitch is an in-memory switch with a fixed five-port table, used for demos and tests
type MockSwitch struct {
	mu         sync.Mutex
	latency    time.Duration
	order      []string
	interfaces map[string]*Interface
	info       DeviceInfo
	connected  bool
}

// NewMockSwitch returns the canonical fixture. Connect sleeps for latency and Disconnect for half of it.
func NewMockSwitch(latency time.Duration) *MockSwitch {
	fixture := []Interface{
		{Name: "GigabitEthernet0/1", PortSecurityEnabled: true, MaxMacAddresses: 2, ViolationAction: ViolationShutdown,
			LearnedMacAddresses: []string{"00:11:22:33:44:55"}, LinkStatus: LinkUp},
		{Name: "GigabitEthernet0/2", PortSecurityEnabled: false, MaxMacAddresses: 1, ViolationAction: ViolationRestrict,
			LearnedMacAddresses: []string{}, LinkStatus: LinkDown},
		{Name: "GigabitEthernet0/3", PortSecurityEnabled: true, MaxMacAddresses: 3, ViolationAction: ViolationProtect,
			LearnedMacAddresses: []string{"00:AA:BB:CC:DD:EE", "00:FF:FF:FF:FF:FF"}, LinkStatus: LinkUp},
		{Name: "GigabitEthernet0/4", PortSecurityEnabled: false, MaxMacAddresses: 1, ViolationAction: ViolationShutdown,
			LearnedMacAddresses: []string{}, LinkStatus: LinkUp},
		{Name: "GigabitEthernet0/5", PortSecurityEnabled: true, MaxMacAddresses: 1, ViolationAction: ViolationRestrict,
			LearnedMacAddresses: []string{"00:12:34:56:78:90"}, LinkStatus: LinkUp},
	}

	m := &MockSwitch{
		latency:    latency,
		interfaces: make(map[string]*Interface, len(fixture)),
		info: DeviceInfo{
			Hostname: "MOCK-CISCO-SWITCH",
			Model:    "WS-C2960-24TT-L",
			Version:  "15.0(2)SE11",
			Uptime:   "1 day, 2 hours, 30 minutes",
		},
	}
	for i := range fixture {
		iface := fixture[i]
		m.order = append(m.order, iface.Name)
		m.interfaces[iface.Name] = &iface
	}
	return m
}

// Connect simulates the login round-trip and always succeeds
func (m *MockSwitch) Connect() error {
	time.Sleep(m.latency)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *MockSwitch) Disconnect() {
	time.Sleep(m.latency / 2)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *MockSwitch) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockSwitch) InterfaceStatus(name string) (Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iface, ok := m.interfaces[name]
	if !ok {
		return Interface{}, notFound(name)
	}
	return iface.clone(), nil
}

// EnablePortSecurity sets the limit and violation action. Already learned MACs are kept even
// when they exceed the new limit.
func (m *MockSwitch) EnablePortSecurity(name string, opts SecurityOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iface, ok := m.interfaces[name]
	if !ok {
		return "", notFound(name)
	}
	opts, err := opts.Validate()
	if err != nil {
		return "", err
	}
	iface.PortSecurityEnabled = true
	iface.MaxMacAddresses = opts.MaxMac
	iface.ViolationAction = opts.ViolationAction
	return enabledMessage(name, opts), nil
}

func (m *MockSwitch) DisablePortSecurity(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iface, ok := m.interfaces[name]
	if !ok {
		return "", notFound(name)
	}
	iface.PortSecurityEnabled = false
	iface.LearnedMacAddresses = []string{}
	return disabledMessage(name), nil
}

func (m *MockSwitch) ClearPortSecurity(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iface, ok := m.interfaces[name]
	if !ok {
		return "", notFound(name)
	}
	iface.LearnedMacAddresses = []string{}
	iface.LinkStatus = LinkUp
	return clearedMessage(name), nil
}

func (m *MockSwitch) ListInterfaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.order...)
}

func (m *MockSwitch) DeviceInfo() (DeviceInfo, error) {
	return m.info, nil
}
