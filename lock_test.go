package tiffraster

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLockExcludesReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.tif")
	held := make(chan struct{})
	release := make(chan struct{})
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- withExclusive(path, true, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- withShared(path, true, func() error { return nil })
	}()
	select {
	case <-readerDone:
		t.Fatal("shared lock granted while the exclusive one is held")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	for _, ch := range []chan error{writerDone, readerDone} {
		select {
		case err := <-ch:
			if err != nil {
				t.Fatal(err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("lock not released")
		}
	}
}

func TestLockSharedReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.tif")
	err := withShared(path, true, func() error {
		return withShared(path, true, func() error { return nil })
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLockReleasedOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.tif")
	boom := errors.New("boom")
	if err := withExclusive(path, true, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	func() {
		defer func() { recover() }()
		withExclusive(path, true, func() error { panic("boom") })
	}()

	done := make(chan error, 1)
	go func() { done <- withExclusive(path, true, func() error { return nil }) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("lock leaked")
	}
}
