package device

import (
	"errors"
	"fmt"

	"github.com/carlosrabelo/portsec/internal/transport"
)

var (
	// ErrNotFound reports an interface name the switch does not know
	ErrNotFound = errors.New("interface not found")
	// ErrNotConnected reports an operation attempted without an open session
	ErrNotConnected = transport.ErrNotConnected
	// ErrDriverUnavailable reports that no session driver exists for the requested transport
	ErrDriverUnavailable = errors.New("session driver unavailable")
	// ErrInvalidParameter reports an enable request outside the allowed ranges
	ErrInvalidParameter = errors.New("invalid parameter")
)

// OperationError wraps any other backend failure with the operation and interface it hit
type OperationError struct {
	Op        string
	Interface string
	Err       error
}

func (e *OperationError) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Interface, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// opError keeps the taxonomy sentinels visible and wraps everything else
func opError(op, iface string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotFound, ErrNotConnected, ErrDriverUnavailable, ErrInvalidParameter} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &OperationError{Op: op, Interface: iface, Err: err}
}
