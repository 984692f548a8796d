//go:build windows

package organizer

import (
	"errors"

	"golang.org/x/sys/windows"
)

var errCrossDevice error = windows.ERROR_NOT_SAME_DEVICE

func isNotDir(err error) bool {
	return errors.Is(err, windows.ERROR_DIRECTORY)
}
