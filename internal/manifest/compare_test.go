package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/filesnap/internal/models"
)

func TestCompare(t *testing.T) {
	old := models.NewManifest()
	old.Add("same.txt", strPtr("aa"))
	old.Add("edited.txt", strPtr("bb"))
	old.Add("gone.txt", nil)
	old.Add("now-hashed.txt", nil)

	current := models.NewManifest()
	current.Add("new.txt", strPtr("cc"))
	current.Add("edited.txt", strPtr("b2"))
	current.Add("same.txt", strPtr("aa"))
	current.Add("now-hashed.txt", strPtr("dd"))

	d := Compare(old, current)

	assert.False(t, d.Empty())
	assert.Equal(t, []string{"new.txt"}, d.Added)
	assert.Equal(t, []string{"gone.txt"}, d.Removed)
	assert.Equal(t, []string{"edited.txt", "now-hashed.txt"}, d.Changed)
	assert.Equal(t, []string{"+ new.txt", "- gone.txt", "~ edited.txt", "~ now-hashed.txt"}, d.Paths())
}

func TestCompare_OrderIsNotDrift(t *testing.T) {
	a := models.NewManifest()
	a.Add("x", nil)
	a.Add("y", nil)

	b := models.NewManifest()
	b.Add("y", nil)
	b.Add("x", nil)

	d := Compare(a, b)
	assert.True(t, d.Empty())
	assert.Empty(t, d.Paths())
}
