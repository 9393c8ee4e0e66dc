package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	cat := Catalog()
	assert.Len(t, cat, CatalogSize)
	names := make([]string, len(cat))
	for i, n := range cat {
		assert.Equal(t, i, n.Index)
		names[i] = n.Name
	}
	assert.Equal(t, []string{
		"Am-241", "Ba-133", "Cd-109", "Co-57", "Co-60",
		"Cs-137", "Eu-152", "Mn-54", "Na-22", "Pb-210",
	}, names)

	cat[0].Name = "mutated"
	assert.Equal(t, "Am-241", Catalog()[0].Name)
}

func TestNuclideIndex(t *testing.T) {
	tests := []struct {
		in    string
		index int
		ok    bool
	}{
		{"Cs-137", 5, true},
		{"cs137", 5, true},
		{"CS 137", 5, true},
		{"Ｃｏ－６０", 4, true},
		{" pb_210 ", 9, true},
		{"U-235", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		idx, ok := NuclideIndex(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.index, idx, tt.in)
	}
}
