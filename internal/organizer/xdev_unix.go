//go:build unix

package organizer

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errCrossDevice error = unix.EXDEV

func isNotDir(err error) bool {
	return errors.Is(err, unix.ENOTDIR)
}
