package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carlosrabelo/portsec/internal/config"
)

const (
	BufferSize        = 4096
	PromptUsername    = "Username:"
	PromptPassword    = "Password:"
	PromptEnable      = ">"
	PromptPrivileged  = "#"
	TerminalLengthCmd = "terminal length 0\n"

	readPollInterval = 500 * time.Millisecond
)

var (
	// ErrNotConnected is returned when a command is sent without an open session
	ErrNotConnected = errors.New("not connected to switch")
	// ErrUnsupportedTransport is returned for a transport name no client implements
	ErrUnsupportedTransport = errors.New("unsupported transport")
	// ErrPromptTimeout is returned when the expected prompt does not show up in time.
	// The session is still usable afterwards.
	ErrPromptTimeout = errors.New("timeout waiting for prompt")
)

// Client abstracts a switch transport session
type Client interface {
	Connect() error
	Disconnect()
	ExecuteCommand(cmd string) (string, error)
	IsConnected() bool
}

// Options carries everything a transport needs to open a CLI session
type Options struct {
	Transport      string
	Host           string
	Port           int
	Username       string
	Password       string
	EnablePassword string
	Timeout        time.Duration
	Logger         zerolog.Logger
}

func (o Options) addr() string {
	port := o.Port
	if port == 0 {
		port = config.DefaultPortFor(o.Transport)
	}
	return net.JoinHostPort(o.Host, fmt.Sprint(port))
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return config.DefaultConnectionTimeout
	}
	return o.Timeout
}

func (o Options) enableSecret() string {
	if o.EnablePassword != "" {
		return o.EnablePassword
	}
	return o.Password
}

// New returns an unconnected client for the transport named in opts
func New(opts Options) (Client, error) {
	switch strings.ToLower(opts.Transport) {
	case config.TransportSSH, "":
		return NewSSHClient(opts), nil
	case config.TransportTelnet:
		return NewTelnetClient(opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, opts.Transport)
	}
}

// promptReader scrapes a CLI stream until one of the expected prompts shows up
type promptReader struct {
	r           io.Reader
	setDeadline func(time.Time) error
	log         zerolog.Logger
}

func (p promptReader) readUntil(pattern string, timeout time.Duration) (string, error) {
	return p.readUntilAny([]string{pattern}, timeout)
}

func (p promptReader) readUntilAny(patterns []string, timeout time.Duration) (string, error) {
	buffer := make([]byte, BufferSize)
	var output strings.Builder
	output.Grow(BufferSize)
	deadline := time.Now().Add(timeout)

	for {
		if p.setDeadline != nil {
			_ = p.setDeadline(time.Now().Add(readPollInterval))
		}

		n, err := p.r.Read(buffer)
		if n > 0 {
			output.Write(buffer[:n])
			p.log.Trace().Str("chunk", string(buffer[:n])).Msg("Switch output")
			text := output.String()
			for _, pattern := range patterns {
				if strings.Contains(text, pattern) {
					return text, nil
				}
			}
		}

		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if time.Now().After(deadline) {
					return output.String(), promptTimeout(patterns)
				}
				continue
			}
			return output.String(), fmt.Errorf("read error: %w", err)
		}

		if time.Now().After(deadline) {
			return output.String(), promptTimeout(patterns)
		}
	}
}

// streamReader pumps a session stream into a channel from its own goroutine, so waiting for a
// prompt can time out without putting deadlines on the connection underneath
type streamReader struct {
	chunks   chan []byte
	ended    chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	err      error
	log      zerolog.Logger
}

func newStreamReader(r io.Reader, log zerolog.Logger) *streamReader {
	s := &streamReader{
		chunks: make(chan []byte, 64),
		ended:  make(chan struct{}),
		quit:   make(chan struct{}),
		log:    log,
	}
	go s.pump(r)
	return s
}

func (s *streamReader) pump(r io.Reader) {
	defer close(s.ended)
	buffer := make([]byte, BufferSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case s.chunks <- chunk:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			s.err = err
			close(s.chunks)
			return
		}
	}
}

// closed reports whether the stream has ended
func (s *streamReader) closed() bool {
	select {
	case <-s.ended:
		return true
	default:
		return false
	}
}

// stop releases the pump goroutine if it is blocked handing over output
func (s *streamReader) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *streamReader) readUntil(pattern string, timeout time.Duration) (string, error) {
	return s.readUntilAny([]string{pattern}, timeout)
}

func (s *streamReader) readUntilAny(patterns []string, timeout time.Duration) (string, error) {
	var output strings.Builder
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				if s.err == nil || errors.Is(s.err, io.EOF) {
					return output.String(), fmt.Errorf("read error: %w", io.EOF)
				}
				return output.String(), fmt.Errorf("read error: %w", s.err)
			}
			output.Write(chunk)
			s.log.Trace().Str("chunk", string(chunk)).Msg("Switch output")
			text := output.String()
			for _, pattern := range patterns {
				if strings.Contains(text, pattern) {
					return text, nil
				}
			}
		case <-timer.C:
			return output.String(), promptTimeout(patterns)
		}
	}
}

func promptTimeout(patterns []string) error {
	return fmt.Errorf("%w: %s", ErrPromptTimeout, strings.Join(patterns, ", "))
}

// sessionLost reports whether err means the session cannot be used any more
func sessionLost(err error) bool {
	return err != nil && !errors.Is(err, ErrPromptTimeout)
}

// stripEcho drops the echoed command line and the trailing prompt line
func stripEcho(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) > 1 {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return ""
}
