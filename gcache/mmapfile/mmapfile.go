// Package mmapfile owns the file descriptor and read/write mapping backing a
// single cache page. A File is created at a fixed size, mapped shared for its
// whole lifetime, and never grown.
package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is one memory mapped backing file. The mapping covers the whole file
// and remains valid until Close.
type File struct {
	path string
	size int64
	fd   int
	data []byte
}

// Create exclusively creates the file at path, sizes it with ftruncate and
// maps it read/write. The file must not already exist. On any failure the fd
// is closed and the partially created file is unlinked.
func Create(path string, size int64) (*File, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mapped file size must be positive, got %d: %w", size, unix.EINVAL)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	if err = unix.Ftruncate(fd, size); err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		return nil, fmt.Errorf("ftruncate %s to %d: %w", path, size, err)
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	return &File{path: path, size: size, fd: fd, data: data}, nil
}

// Data returns the full mapping. The slice is invalid after Close.
func (f *File) Data() []byte { return f.data }

func (f *File) Size() int64 { return f.size }

func (f *File) Path() string { return f.path }

// DontNeed advises the OS that neither the mapping nor the file's cached
// pages are needed. Callers treat failure as best effort.
func (f *File) DontNeed() error {
	if err := unix.Madvise(f.data, unix.MADV_DONTNEED); err != nil {
		return fmt.Errorf("madvise %s: %w", f.path, err)
	}
	if err := unix.Fadvise(f.fd, 0, f.size, unix.FADV_DONTNEED); err != nil {
		return fmt.Errorf("fadvise %s: %w", f.path, err)
	}
	return nil
}

// Sync flushes the mapping to the backing file.
func (f *File) Sync() error {
	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync %s: %w", f.path, err)
	}
	return nil
}

// Close unmaps and closes the file. It does not remove it. Close is
// idempotent.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	err := unix.Munmap(f.data)
	f.data = nil
	if cerr := unix.Close(f.fd); err == nil {
		err = cerr
	}
	f.fd = -1
	if err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	return nil
}
