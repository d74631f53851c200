package model

// Entry is a named group of files from a manifest.
//
// Files are kept in manifest order so that repeated runs over the same
// manifest produce the same report.
type Entry struct {
	// Name is the display label of the entry.
	Name string

	// Files holds the entry's files in manifest order.
	Files []*File
}

// NewEntry creates an empty Entry.
func NewEntry(name string) *Entry {
	return &Entry{Name: name}
}

// Add appends a file, preserving insertion order.
func (e *Entry) Add(f *File) {
	e.Files = append(e.Files, f)
}
