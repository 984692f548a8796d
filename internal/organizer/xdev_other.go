//go:build !unix && !windows

package organizer

import "errors"

var errCrossDevice = errors.New("cross-device link")

func isNotDir(error) bool { return false }
