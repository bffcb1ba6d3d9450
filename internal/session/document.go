package session

// Document is the one open artifact: its editable buffer, the version token
// proving what the buffer was loaded from, and whether local edits exist.
// Only the Controller's open/edit/save operations mutate it.
type Document struct {
	id      string
	content string
	version string
	dirty   bool
}

// ID returns the artifact identifier.
func (d *Document) ID() string { return d.id }

// Content returns the current buffer.
func (d *Document) Content() string { return d.content }

// Version returns the optimistic-concurrency token from the last successful
// load or save.
func (d *Document) Version() string { return d.version }

// Dirty reports whether the buffer has edits not yet saved.
func (d *Document) Dirty() bool { return d.dirty }
