package manifest

import "os"

// FileSystem is the minimal filesystem surface ManifestLoader needs. It
// exists so the discovery walk (§4.2) can be tested against a virtual tree
// instead of the real filesystem.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
}

// osFS is the real filesystem, used outside of tests.
type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultFS returns the real filesystem implementation.
func DefaultFS() FileSystem { return osFS{} }
