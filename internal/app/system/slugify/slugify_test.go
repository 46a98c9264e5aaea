package slugify_test

import (
	"testing"

	"github.com/threadhive/threadhive/internal/app/system/slugify"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Gopher Fans", "gopher-fans"},
		{"  Lots   of   spaces  ", "lots-of-spaces"},
		{"Already-Hyphenated", "already-hyphenated"},
		{"Punct!u@ation#", "punctuation"},
		{"under_scores ok", "under_scores-ok"},
		{"Trailing Space ", "trailing-space"},
	}
	for _, c := range cases {
		if got := slugify.Slug(c.in); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
