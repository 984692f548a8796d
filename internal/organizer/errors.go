package organizer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDestinationConflict = errors.New("destination conflict")
	ErrCollisionExhausted  = errors.New("collision probes exhausted")
	ErrPermissionDenied    = errors.New("permission denied")
	// ErrScript is reserved for callers that treat a hook failure as fatal
	// for the file. The resolver never does: a failing hook is a no match.
	ErrScript              = errors.New("script error")
	ErrIO                  = errors.New("io error")
)

// Kind classifies a failed outcome.
type Kind string

const (
	KindNone                Kind = ""
	KindNotFound            Kind = "not_found"
	KindDestinationConflict Kind = "destination_conflict"
	KindCollisionExhausted  Kind = "collision_exhausted"
	KindPermissionDenied    Kind = "permission_denied"
	KindScript              Kind = "script_error" // reserved, see ErrScript
	KindIO                  Kind = "io_error"
)

// Wrap tags err with marker and an operation description so KindOf can
// classify it later. marker should be one of the sentinels above.
func Wrap(marker error, operation, path string, err error) error {
	if marker == nil {
		marker = ErrIO
	}
	detail := buildDetail(operation, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error produced by this package to its failure kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDestinationConflict):
		return KindDestinationConflict
	case errors.Is(err, ErrCollisionExhausted):
		return KindCollisionExhausted
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrScript):
		return KindScript
	default:
		return KindIO
	}
}

func buildDetail(operation, path string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if path = strings.TrimSpace(path); path != "" {
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return "organize failure"
	}
	return strings.Join(parts, ": ")
}
