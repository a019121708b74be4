package tiffraster

// lockPath is the sister file guarding path.
func lockPath(path string) string { return path + ".lock" }

// withLock runs fn while holding the sister lock of path. The lock is
// released on every return path, including a panic in fn.
func withLock(path string, exclusive, enabled bool, fn func() error) (err error) {
	if !enabled {
		return fn()
	}
	l, err := acquireSister(path, exclusive)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := l.release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}

func withShared(path string, enabled bool, fn func() error) error {
	return withLock(path, false, enabled, fn)
}

func withExclusive(path string, enabled bool, fn func() error) error {
	return withLock(path, true, enabled, fn)
}
