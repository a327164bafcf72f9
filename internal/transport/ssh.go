package transport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SSHClient manages an interactive SSH shell on a switch
type SSHClient struct {
	opts    Options
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	reader  *streamReader
	netConn net.Conn
}

// NewSSHClient creates a new SSH client with the given options
func NewSSHClient(opts Options) *SSHClient {
	return &SSHClient{opts: opts}
}

func (sc *SSHClient) Connect() error {
	if sc.IsConnected() {
		return nil
	}
	sc.dropStale()
	addr := sc.opts.addr()
	timeout := sc.opts.timeout()
	sshConfig := &ssh.ClientConfig{
		User:            sc.opts.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(sc.opts.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	dialer := &net.Dialer{Timeout: timeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s via SSH: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(rawConn, addr, sshConfig)
	if err != nil {
		rawConn.Close()
		return fmt.Errorf("failed to establish SSH client connection to %s: %w", addr, err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create SSH session for %s: %w", addr, err)
	}

	fail := func(step string, err error) error {
		session.Close()
		client.Close()
		return fmt.Errorf("failed to %s for %s: %w", step, addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty("vt100", 80, 40, modes); err != nil {
		return fail("request PTY", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		return fail("get stdin pipe", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return fail("get stdout pipe", err)
	}
	if err := session.Shell(); err != nil {
		return fail("start shell", err)
	}

	sc.client = client
	sc.session = session
	sc.stdin = stdin
	sc.netConn = rawConn
	sc.reader = newStreamReader(bufio.NewReader(stdout), sc.opts.Logger)

	sc.opts.Logger.Debug().Str("addr", addr).Msg("Connected via SSH")

	initial, err := sc.reader.readUntilAny([]string{PromptPrivileged, PromptEnable}, timeout)
	if err != nil {
		sc.Disconnect()
		return err
	}

	if !strings.Contains(initial, PromptPrivileged) {
		sc.opts.Logger.Debug().Str("addr", addr).Msg("Elevating to privileged mode")
		if err := sc.send("enable\n"); err != nil {
			sc.Disconnect()
			return fmt.Errorf("failed to send enable command to %s: %w", addr, err)
		}
		if _, err := sc.reader.readUntil(PromptPassword, timeout); err != nil {
			sc.Disconnect()
			return err
		}
		if err := sc.send(sc.opts.enableSecret() + "\n"); err != nil {
			sc.Disconnect()
			return fmt.Errorf("failed to send enable password to %s: %w", addr, err)
		}
		if _, err := sc.reader.readUntil(PromptPrivileged, timeout); err != nil {
			sc.Disconnect()
			return err
		}
	}

	if err := sc.send(TerminalLengthCmd); err != nil {
		sc.Disconnect()
		return fmt.Errorf("failed to send terminal length command to %s: %w", addr, err)
	}
	if _, err := sc.reader.readUntil(PromptPrivileged, timeout); err != nil {
		sc.Disconnect()
		return err
	}
	return nil
}

func (sc *SSHClient) Disconnect() {
	if sc.reader != nil {
		sc.reader.stop()
		sc.reader = nil
	}
	if sc.session != nil {
		sc.session.Close()
		sc.session = nil
	}
	if sc.client != nil {
		sc.client.Close()
		sc.client = nil
	}
	if sc.netConn != nil {
		sc.netConn.Close()
		sc.netConn = nil
	}
	sc.stdin = nil
	sc.opts.Logger.Debug().Msg("SSH session closed")
}

// dropStale releases the handles of a session the switch has already closed
func (sc *SSHClient) dropStale() {
	if sc.session != nil || sc.client != nil {
		sc.Disconnect()
	}
}

// IsConnected reports false once the switch has closed the session
func (sc *SSHClient) IsConnected() bool {
	return sc.session != nil && sc.client != nil && sc.reader != nil && !sc.reader.closed()
}

func (sc *SSHClient) ExecuteCommand(cmd string) (string, error) {
	if !sc.IsConnected() {
		sc.dropStale()
		return "", ErrNotConnected
	}
	sc.opts.Logger.Debug().Str("command", cmd).Msg("Executing")
	if err := sc.send(cmd + "\n"); err != nil {
		sc.opts.Logger.Warn().Err(err).Msg("SSH session lost")
		sc.Disconnect()
		return "", fmt.Errorf("failed to send command %s: %w", cmd, err)
	}
	output, err := sc.reader.readUntil(PromptPrivileged, sc.opts.timeout())
	if err != nil {
		if sessionLost(err) {
			sc.opts.Logger.Warn().Err(err).Msg("SSH session lost")
			sc.Disconnect()
		}
		return "", fmt.Errorf("error executing %s: %w", cmd, err)
	}
	return stripEcho(output), nil
}

func (sc *SSHClient) send(data string) error {
	_, err := sc.stdin.Write([]byte(data))
	return err
}
