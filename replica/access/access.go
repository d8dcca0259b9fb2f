// Package access decides whether the author of a record may append to a replica.
package access

import (
	"errors"
	"fmt"

	"github.com/hldb/welo-sub001/replica/record"
)

var (
	// ErrConfig is returned for an access snapshot the controller can't operate on
	ErrConfig = errors.New("invalid access config")
	// ErrAccessDenied marks a record whose author may not append under the governing snapshot
	ErrAccessDenied = errors.New("access denied")
)

// Controller is an access policy implementation. Snapshots are carried by
// epochs, the controller itself holds no mutable policy state.
type Controller interface {
	// Protocol is the tag snapshots must carry to be handled by this controller
	Protocol() string
	// ValidateConfig checks that the snapshot is usable by the controller
	ValidateConfig(snapshot *record.AccessSnapshot) error
	// CanAppend reports whether the author of r may append under snapshot
	CanAppend(r *record.Record, snapshot *record.AccessSnapshot) (bool, error)
}

// New returns the controller implementing the given protocol
func New(protocol string) (Controller, error) {
	switch protocol {
	case StaticProtocol:
		return NewStatic(), nil
	}
	return nil, fmt.Errorf("%w: unknown protocol %q", ErrConfig, protocol)
}

// Check validates the snapshot with c and then asks c whether r may append.
// A snapshot meant for another protocol or failing validation denies access.
func Check(c Controller, r *record.Record, snapshot *record.AccessSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: no access snapshot", ErrAccessDenied)
	}
	if snapshot.Protocol != c.Protocol() {
		return fmt.Errorf("%w: snapshot protocol %q is not %q", ErrAccessDenied, snapshot.Protocol, c.Protocol())
	}
	if err := c.ValidateConfig(snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	ok, err := c.CanAppend(r, snapshot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}
