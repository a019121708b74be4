//go:build !unix

package tiffraster

import (
	"path/filepath"
	"sync"
)

// Without flock the sister lock only excludes other files of this process.
var (
	sistersMu sync.Mutex
	sisters   = make(map[string]*sync.RWMutex)
)

type sisterLock struct {
	mu        *sync.RWMutex
	exclusive bool
}

func acquireSister(path string, exclusive bool) (*sisterLock, error) {
	abs, err := filepath.Abs(lockPath(path))
	if err != nil {
		return nil, err
	}
	sistersMu.Lock()
	mu := sisters[abs]
	if mu == nil {
		mu = new(sync.RWMutex)
		sisters[abs] = mu
	}
	sistersMu.Unlock()
	if exclusive {
		mu.Lock()
	} else {
		mu.RLock()
	}
	return &sisterLock{mu: mu, exclusive: exclusive}, nil
}

func (l *sisterLock) release() error {
	if l.exclusive {
		l.mu.Unlock()
	} else {
		l.mu.RUnlock()
	}
	return nil
}
