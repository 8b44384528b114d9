package normalize

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"identity ascii", "flying", "flying"},
		{"case fold", "FLYING", "flying"},
		{"utf8 repair drops invalid bytes", string([]byte{0xff, 'f', 'l', 'y', 0x80, 'i', 'n', 'g'}), "flying"},
		{"remove zero-widths", "fly\u200bi\u200dng", "flying"},
		{"width fold fullwidth", "ＨＯＣＫＥＹ", "hockey"},
		{"nfkc ligature", "oﬃce visits", "office visits"},
		{"collapse whitespace", " blood \t\n pressure  ", "blood pressure"},
		{"controls dropped", "sugar\x00\x7f", "sugar"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Key(tc.in)
			if got != tc.out {
				t.Fatalf("Key(%q) = %q, want %q", tc.in, got, tc.out)
			}
			if again := Key(got); again != got {
				t.Fatalf("Key not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, out string }{
		{"Air Travel", "air-travel"},
		{"  Fear of Flying!! ", "fear-of-flying"},
		{"air_travel", "air-travel"},
		{"Café Visits", "cafe-visits"},
		{"Symptom / Condition", "symptom-condition"},
		{"follow-up", "follow-up"},
		{"---", ""},
		{"", ""},
		{"5K Runs", "5k-runs"},
	}
	for _, tc := range tests {
		if got := Slug(tc.in); got != tc.out {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	in := " \t a \n b   c \r\n "
	if got := CollapseSpaces(in, false); got != "a b c" {
		t.Fatalf("CollapseSpaces flat = %q", got)
	}
	if got := CollapseSpaces(in, true); got != "a\nb c" {
		t.Fatalf("CollapseSpaces keep newlines = %q", got)
	}
}

func TestStripControls(t *testing.T) {
	cases := []struct{ in, out string }{
		{"clean text\n", "clean text\n"},
		{"a\x00b\x01c\x7fd", "abcd"},
		{"tab\tok\r\n", "tab\tok\r\n"},
		{"c1\u0085here", "c1here"},
		{string([]byte{'a', 0xff, 'b'}), "ab"},
		{"", ""},
	}
	for _, c := range cases {
		if got := StripControls(c.in); got != c.out {
			t.Fatalf("StripControls(%q) = %q, want %q", c.in, got, c.out)
		}
	}
}
