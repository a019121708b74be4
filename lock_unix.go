//go:build unix

package tiffraster

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// sisterLock is an advisory flock on the sister file. Other processes
// using this package honor it; nothing else does.
type sisterLock struct {
	f *os.File
}

func acquireSister(path string, exclusive bool) (*sisterLock, error) {
	f, err := os.OpenFile(lockPath(path), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		// Readers on read-only media go unlocked.
		if !exclusive && (errors.Is(err, fs.ErrPermission) || errors.Is(err, unix.EROFS)) {
			return &sisterLock{}, nil
		}
		return nil, err
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	for {
		err = unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, &os.PathError{Op: "flock", Path: f.Name(), Err: err}
	}
	return &sisterLock{f: f}, nil
}

func (l *sisterLock) release() error {
	if l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
