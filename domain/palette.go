package domain

import "hash/fnv"

// Palette holds the avatar and task marker colors. Documents store an
// index into this list, never the color itself.
var Palette = []string{
	"#FF7A00", "#FF5EB3", "#6E52FF", "#9327FF", "#00BEE8",
	"#1FD7C1", "#FF745E", "#FFA35E", "#FC71FF", "#FFC701",
	"#0038FF", "#C3FF2B", "#FFE62B", "#FF4646", "#FFBB2B",
}

// PickColor assigns a palette index for a new document. The choice is
// deterministic on the id so retried creates keep the same color.
func PickColor(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(Palette)))
}

// NormalizeColor clamps out-of-range palette indexes.
func NormalizeColor(idx int) int {
	if idx < 0 || idx >= len(Palette) {
		return 0
	}
	return idx
}
