package transport

import (
	"fmt"
	"strings"

	"github.com/ziutek/telnet"
)

// TelnetClient manages a Telnet connection to a switch
type TelnetClient struct {
	opts   Options
	conn   *telnet.Conn
	reader promptReader
}

// NewTelnetClient creates a new Telnet client with the given options
func NewTelnetClient(opts Options) *TelnetClient {
	return &TelnetClient{opts: opts}
}

// Connect dials the switch, logs in and reaches privileged mode
func (tc *TelnetClient) Connect() error {
	if tc.conn != nil {
		return nil
	}
	addr := tc.opts.addr()
	timeout := tc.opts.timeout()
	conn, err := telnet.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	tc.conn = conn
	tc.reader = promptReader{r: conn, setDeadline: conn.SetReadDeadline, log: tc.opts.Logger}
	tc.opts.Logger.Debug().Str("addr", addr).Msg("Connected via Telnet")

	login := []struct {
		prompt string
		input  string
	}{
		{PromptUsername, tc.opts.Username + "\n"},
		{PromptPassword, tc.opts.Password + "\n"},
	}
	for _, p := range login {
		if err := tc.expect(p.prompt, p.input); err != nil {
			tc.Disconnect()
			return err
		}
	}

	output, err := tc.reader.readUntilAny([]string{PromptPrivileged, PromptEnable}, timeout)
	if err != nil {
		tc.Disconnect()
		return fmt.Errorf("failed to wait for CLI prompt: %w, output: %s", err, output)
	}
	if !strings.Contains(output, PromptPrivileged) {
		if err := tc.send("enable\n"); err != nil {
			tc.Disconnect()
			return err
		}
		if err := tc.expect(PromptPassword, tc.opts.enableSecret()+"\n"); err != nil {
			tc.Disconnect()
			return err
		}
		if err := tc.expect(PromptPrivileged, ""); err != nil {
			tc.Disconnect()
			return err
		}
	}
	if err := tc.send(TerminalLengthCmd); err != nil {
		tc.Disconnect()
		return err
	}
	if err := tc.expect(PromptPrivileged, ""); err != nil {
		tc.Disconnect()
		return err
	}
	return nil
}

func (tc *TelnetClient) expect(prompt, input string) error {
	output, err := tc.reader.readUntil(prompt, tc.opts.timeout())
	if err != nil {
		return fmt.Errorf("failed to wait for %s: %w, output: %s", prompt, err, output)
	}
	if input != "" {
		if err := tc.send(input); err != nil {
			return err
		}
		tc.opts.Logger.Debug().Str("prompt", prompt).Msg("Answered prompt")
	}
	return nil
}

func (tc *TelnetClient) send(data string) error {
	if _, err := tc.conn.Write([]byte(data)); err != nil {
		return fmt.Errorf("failed to write to %s: %w", tc.opts.Host, err)
	}
	return nil
}

// Disconnect closes the Telnet connection
func (tc *TelnetClient) Disconnect() {
	if tc.conn != nil {
		tc.conn.Close()
		tc.conn = nil
		tc.opts.Logger.Debug().Msg("Telnet session closed")
	}
}

func (tc *TelnetClient) IsConnected() bool {
	return tc.conn != nil
}

// ExecuteCommand sends a command to the switch and returns its output
func (tc *TelnetClient) ExecuteCommand(cmd string) (string, error) {
	if tc.conn == nil {
		return "", ErrNotConnected
	}
	tc.opts.Logger.Debug().Str("command", cmd).Msg("Executing")
	if err := tc.send(cmd + "\n"); err != nil {
		tc.opts.Logger.Warn().Err(err).Msg("Telnet session lost")
		tc.Disconnect()
		return "", err
	}
	output, err := tc.reader.readUntil(PromptPrivileged, tc.opts.timeout())
	if err != nil {
		if sessionLost(err) {
			tc.opts.Logger.Warn().Err(err).Msg("Telnet session lost")
			tc.Disconnect()
		}
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	return stripEcho(output), nil
}
