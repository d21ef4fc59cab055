package manifest

import (
	"sort"

	"github.com/harrison/filesnap/internal/models"
)

// Drift lists the differences between two manifests, each in lexical order.
type Drift struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the manifests record the same files and digests.
// Order differences are not drift.
func (d Drift) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Paths returns every drifted path marked with +, - or ~.
func (d Drift) Paths() []string {
	out := make([]string, 0, len(d.Added)+len(d.Removed)+len(d.Changed))
	for _, p := range d.Added {
		out = append(out, "+ "+p)
	}
	for _, p := range d.Removed {
		out = append(out, "- "+p)
	}
	for _, p := range d.Changed {
		out = append(out, "~ "+p)
	}
	return out
}

// Compare reports what changed going from old to current.
func Compare(old, current *models.Manifest) Drift {
	var d Drift
	for _, e := range current.Entries() {
		prev, ok := old.Get(e.Path)
		switch {
		case !ok:
			d.Added = append(d.Added, e.Path)
		case !sameDigest(prev.Digest, e.Digest):
			d.Changed = append(d.Changed, e.Path)
		}
	}
	for _, e := range old.Entries() {
		if _, ok := current.Get(e.Path); !ok {
			d.Removed = append(d.Removed, e.Path)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func sameDigest(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
