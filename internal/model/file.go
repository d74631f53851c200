package model

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// NamePlaceholder is replaced by the file name in manifest URLs.
const NamePlaceholder = "$(name)"

// ErrInvalidFile is returned when a file record cannot be built from its attributes.
var ErrInvalidFile = errors.New("invalid file")

// File is a single download target.
//
// File contains:
//   - The on-disk name, which is also substituted into the URL
//   - The absolute destination directory
//   - The fully resolved source URL
//   - The size, learned from a local stat or from the download
//   - The expected digests, keyed by algorithm name
//
// DestDir, Name, URL and Checksums are fixed at construction. Only Size
// changes afterwards.
//
// Example:
//
//	file, _ := NewFile("/srv", "foo.tar.gz", "dist", "https://example.com/$(name)", nil)
//	// file.URL    = "https://example.com/foo.tar.gz"
//	// file.Path() = "/srv/dist/foo.tar.gz"
type File struct {
	// Name is the file name on disk.
	Name string

	// DestDir is the absolute, cleaned directory the file is stored in.
	DestDir string

	// URL is the source URL with every $(name) already substituted.
	URL string

	// Size is the last known size of the file.
	Size Size

	// Checksums maps an algorithm name (e.g. "sha256") to the expected
	// lowercase hex digest.
	Checksums map[string]string
}

// NewFile creates a File with a resolved destination directory and URL.
//
// Parameters:
//   - rootDir: Directory that relative destination directories are resolved against
//   - name: File name on disk (must not contain a path separator)
//   - destDir: Destination directory from the manifest; an absolute destDir is used as is
//   - url: Source URL template, may contain $(name)
//   - checksums: Expected digests by algorithm, copied into the File
//
// Returns ErrInvalidFile if name or url is unusable.
func NewFile(rootDir, name, destDir, url string, checksums map[string]string) (*File, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, errors.Wrapf(ErrInvalidFile, "bad file name %q", name)
	}
	if url == "" {
		return nil, errors.Wrapf(ErrInvalidFile, "%s: empty url", name)
	}

	dir := destDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootDir, dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	sums := make(map[string]string, len(checksums))
	for algo, digest := range checksums {
		sums[algo] = digest
	}

	return &File{
		Name:      name,
		DestDir:   filepath.Clean(dir),
		URL:       strings.ReplaceAll(url, NamePlaceholder, name),
		Size:      UnknownSize,
		Checksums: sums,
	}, nil
}

// Path returns the absolute path of the file on disk.
func (f *File) Path() string {
	return filepath.Join(f.DestDir, f.Name)
}

// Algorithms returns the configured checksum algorithm names in sorted order.
func (f *File) Algorithms() []string {
	algos := make([]string, 0, len(f.Checksums))
	for algo := range f.Checksums {
		algos = append(algos, algo)
	}
	sort.Strings(algos)
	return algos
}
