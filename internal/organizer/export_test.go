package organizer

import "time"

// ErrCrossDevice is the platform error reported for renames across devices.
var ErrCrossDevice = errCrossDevice

// SetRenameForTests swaps the rename implementation and shortens the source
// removal backoff.
func (m *Mover) SetRenameForTests(fn func(oldpath, newpath string) error) {
	m.rename = fn
	m.removeBackoff = time.Millisecond
}

// SetRemoveForTests swaps how the source is deleted after a cross-device copy.
func (m *Mover) SetRemoveForTests(fn func(name string) error) {
	m.remove = fn
	m.removeBackoff = time.Millisecond
}

var ProbeName = probeName
