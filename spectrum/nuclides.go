package spectrum

// Nuclide is a catalog entry. Index is the model output channel.
type Nuclide struct {
	Name  string
	Index int
}

// Catalog returns the radionuclides the model classifies, ordered by output channel.
func Catalog() []Nuclide {
	return []Nuclide{
		{Name: "Am-241", Index: 0},
		{Name: "Ba-133", Index: 1},
		{Name: "Cd-109", Index: 2},
		{Name: "Co-57", Index: 3},
		{Name: "Co-60", Index: 4},
		{Name: "Cs-137", Index: 5},
		{Name: "Eu-152", Index: 6},
		{Name: "Mn-54", Index: 7},
		{Name: "Na-22", Index: 8},
		{Name: "Pb-210", Index: 9},
	}
}

// CatalogSize is the number of model output channels.
const CatalogSize = 10

// NuclideIndex looks up the output channel of a nuclide by name.
// Matching ignores case and accepts "cs137", "Cs 137" or "CS-137".
func NuclideIndex(name string) (int, bool) {
	key := NormalizeLabel(name)
	if key == "" {
		return 0, false
	}
	for _, n := range Catalog() {
		canon := NormalizeLabel(n.Name)
		if key == canon || key == stripHyphens(canon) {
			return n.Index, true
		}
	}
	return 0, false
}

func stripHyphens(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
