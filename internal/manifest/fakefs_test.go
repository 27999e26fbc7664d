package manifest

import "errors"

var errFakeFSNotFound = errors.New("fakefs: no such file")

// fakeFS is a virtual filesystem for testing ManifestLoader's discovery
// walk without touching the real filesystem (spec.md §9's testability
// design note).
type fakeFS struct {
	files map[string][]byte
}

func newFakeFS() *fakeFS { return &fakeFS{files: map[string][]byte{}} }

func (f *fakeFS) put(path, content string) *fakeFS {
	f.files[path] = []byte(content)
	return f
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errFakeFSNotFound
	}
	return data, nil
}

func (f *fakeFS) Exists(path string) bool {
	_, ok := f.files[path]
	return ok
}
