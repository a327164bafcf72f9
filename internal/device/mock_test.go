package device

import (
	"errors"
	"reflect"
	"testing"
)

func TestMockSwitch_Fixture(t *testing.T) {
	m := NewMockSwitch(0)

	want := []string{
		"GigabitEthernet0/1",
		"GigabitEthernet0/2",
		"GigabitEthernet0/3",
		"GigabitEthernet0/4",
		"GigabitEthernet0/5",
	}
	if got := m.ListInterfaces(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ListInterfaces() = %v, want %v", got, want)
	}

	tests := []struct {
		name    string
		enabled bool
		max     int
		action  ViolationAction
		learned []string
		link    LinkStatus
	}{
		{"GigabitEthernet0/1", true, 2, ViolationShutdown, []string{"00:11:22:33:44:55"}, LinkUp},
		{"GigabitEthernet0/2", false, 1, ViolationRestrict, []string{}, LinkDown},
		{"GigabitEthernet0/3", true, 3, ViolationProtect, []string{"00:AA:BB:CC:DD:EE", "00:FF:FF:FF:FF:FF"}, LinkUp},
		{"GigabitEthernet0/4", false, 1, ViolationShutdown, []string{}, LinkUp},
		{"GigabitEthernet0/5", true, 1, ViolationRestrict, []string{"00:12:34:56:78:90"}, LinkUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface, err := m.InterfaceStatus(tt.name)
			if err != nil {
				t.Fatalf("InterfaceStatus() error = %v", err)
			}
			if iface.PortSecurityEnabled != tt.enabled || iface.MaxMacAddresses != tt.max ||
				iface.ViolationAction != tt.action || iface.LinkStatus != tt.link {
				t.Errorf("InterfaceStatus() = %+v", iface)
			}
			if !reflect.DeepEqual(iface.LearnedMacAddresses, tt.learned) {
				t.Errorf("LearnedMacAddresses = %v, want %v", iface.LearnedMacAddresses, tt.learned)
			}
		})
	}

	info, err := m.DeviceInfo()
	if err != nil {
		t.Fatalf("DeviceInfo() error = %v", err)
	}
	if info.Hostname != "MOCK-CISCO-SWITCH" || info.Model != "WS-C2960-24TT-L" || info.Version != "15.0(2)SE11" {
		t.Errorf("DeviceInfo() = %+v", info)
	}
}

func TestMockSwitch_ConnectDisconnect(t *testing.T) {
	m := NewMockSwitch(0)
	if m.IsConnected() {
		t.Fatal("new mock should start disconnected")
	}
	if err := m.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := m.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if !m.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	m.Disconnect()
	m.Disconnect()
	if m.IsConnected() {
		t.Fatal("IsConnected() = true after Disconnect")
	}
}

func TestMockSwitch_EnablePortSecurity(t *testing.T) {
	m := NewMockSwitch(0)

	msg, err := m.EnablePortSecurity("GigabitEthernet0/2", SecurityOptions{MaxMac: 3, ViolationAction: ViolationRestrict})
	if err != nil {
		t.Fatalf("EnablePortSecurity() error = %v", err)
	}
	wantMsg := "Port security enabled on GigabitEthernet0/2 with max MAC addresses: 3, violation action: restrict"
	if msg != wantMsg {
		t.Errorf("message = %q, want %q", msg, wantMsg)
	}

	iface, _ := m.InterfaceStatus("GigabitEthernet0/2")
	if !iface.PortSecurityEnabled || iface.MaxMacAddresses != 3 || iface.ViolationAction != ViolationRestrict {
		t.Errorf("state after enable = %+v", iface)
	}
}

func TestMockSwitch_EnableDefaults(t *testing.T) {
	m := NewMockSwitch(0)
	if _, err := m.EnablePortSecurity("GigabitEthernet0/4", SecurityOptions{MaxMac: 1}); err != nil {
		t.Fatalf("EnablePortSecurity() error = %v", err)
	}
	iface, _ := m.InterfaceStatus("GigabitEthernet0/4")
	if iface.MaxMacAddresses != 1 || iface.ViolationAction != ViolationShutdown {
		t.Errorf("defaults not applied: %+v", iface)
	}
}

func TestMockSwitch_EnableInvalid(t *testing.T) {
	m := NewMockSwitch(0)
	tests := []struct {
		name string
		opts SecurityOptions
	}{
		{"negative max", SecurityOptions{MaxMac: -1}},
		{"zero max", SecurityOptions{MaxMac: 0, ViolationAction: ViolationRestrict}},
		{"bad action", SecurityOptions{MaxMac: 1, ViolationAction: "drop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.EnablePortSecurity("GigabitEthernet0/2", tt.opts)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("error = %v, want ErrInvalidParameter", err)
			}
		})
	}
	iface, _ := m.InterfaceStatus("GigabitEthernet0/2")
	if iface.PortSecurityEnabled {
		t.Error("rejected enable must not mutate state")
	}
}

func TestMockSwitch_KeepsLearnedAboveLimit(t *testing.T) {
	m := NewMockSwitch(0)
	if _, err := m.EnablePortSecurity("GigabitEthernet0/3", SecurityOptions{MaxMac: 1}); err != nil {
		t.Fatalf("EnablePortSecurity() error = %v", err)
	}
	iface, _ := m.InterfaceStatus("GigabitEthernet0/3")
	if len(iface.LearnedMacAddresses) != 2 {
		t.Errorf("learned = %v, want the two fixture addresses kept", iface.LearnedMacAddresses)
	}
}

func TestMockSwitch_DisablePortSecurity(t *testing.T) {
	m := NewMockSwitch(0)
	msg, err := m.DisablePortSecurity("GigabitEthernet0/3")
	if err != nil {
		t.Fatalf("DisablePortSecurity() error = %v", err)
	}
	if msg != "Port security disabled on GigabitEthernet0/3" {
		t.Errorf("message = %q", msg)
	}
	iface, _ := m.InterfaceStatus("GigabitEthernet0/3")
	if iface.PortSecurityEnabled || len(iface.LearnedMacAddresses) != 0 {
		t.Errorf("state after disable = %+v", iface)
	}
}

func TestMockSwitch_ClearPortSecurity(t *testing.T) {
	m := NewMockSwitch(0)
	if _, err := m.ClearPortSecurity("GigabitEthernet0/1"); err != nil {
		t.Fatalf("ClearPortSecurity() error = %v", err)
	}
	iface, _ := m.InterfaceStatus("GigabitEthernet0/1")
	if len(iface.LearnedMacAddresses) != 0 || iface.LinkStatus != LinkUp {
		t.Errorf("state after clear = %+v", iface)
	}
	if !iface.PortSecurityEnabled || iface.MaxMacAddresses != 2 {
		t.Errorf("clear must keep the security settings, got %+v", iface)
	}
}

func TestMockSwitch_ReturnsCopies(t *testing.T) {
	m := NewMockSwitch(0)
	iface, _ := m.InterfaceStatus("GigabitEthernet0/1")
	iface.LearnedMacAddresses[0] = "FF:FF:FF:FF:FF:FF"
	iface.MaxMacAddresses = 99

	again, _ := m.InterfaceStatus("GigabitEthernet0/1")
	if again.LearnedMacAddresses[0] != "00:11:22:33:44:55" || again.MaxMacAddresses != 2 {
		t.Errorf("caller mutation leaked into the mock: %+v", again)
	}

	names := m.ListInterfaces()
	names[0] = "changed"
	if m.ListInterfaces()[0] != "GigabitEthernet0/1" {
		t.Error("ListInterfaces exposes internal order slice")
	}
}
