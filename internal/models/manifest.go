package models

// ManifestEntry is one recorded file.
// Digest is nil when hashing is disabled and serializes as JSON null.
type ManifestEntry struct {
	Path   string
	Digest *string
}

// Manifest is an ordered mapping of unique relative paths to digests.
// Entries keep the order in which they were added.
type Manifest struct {
	entries []ManifestEntry
	index   map[string]int
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make([]ManifestEntry, 0),
		index:   make(map[string]int),
	}
}

// Add records path with its digest. Returns false if the path was already
// present, in which case the first entry is kept untouched.
func (m *Manifest) Add(path string, digest *string) bool {
	if _, exists := m.index[path]; exists {
		return false
	}
	m.index[path] = len(m.entries)
	m.entries = append(m.entries, ManifestEntry{Path: path, Digest: digest})
	return true
}

// Get returns the entry recorded for path.
func (m *Manifest) Get(path string) (ManifestEntry, bool) {
	i, ok := m.index[path]
	if !ok {
		return ManifestEntry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of recorded files.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries in insertion order.
func (m *Manifest) Entries() []ManifestEntry {
	out := make([]ManifestEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Paths returns the recorded paths in insertion order.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Path
	}
	return out
}
