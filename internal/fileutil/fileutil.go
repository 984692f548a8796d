package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrVerification marks a copy whose destination does not match the source.
var ErrVerification = errors.New("copy verification failed")

// CopyExclusive streams src into a newly created dst and verifies the result
// by size and SHA-256 of the bytes read back from disk. dst must not exist.
// The source mode and modification time are carried over. On any failure
// after dst was created the partial file is removed.
func CopyExclusive(src, dst string) (err error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	if written != srcInfo.Size() {
		err = fmt.Errorf("%w: source %d bytes, copied %d bytes", ErrVerification, srcInfo.Size(), written)
		return err
	}
	dstSum, err := HashFile(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		err = fmt.Errorf("%w: content hash differs", ErrVerification)
		return err
	}

	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
	return nil
}

// HashFile returns the SHA-256 digest of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
