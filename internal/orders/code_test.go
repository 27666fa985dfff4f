package orders

import "testing"

func TestNextCode(t *testing.T) {
	if got := nextCode(0); got != "STN00001" {
		t.Fatalf("nextCode(0) = %q", got)
	}
	if got := nextCode(41); got != "STN00042" {
		t.Fatalf("nextCode(41) = %q", got)
	}
	if got := nextCode(99999); got != "STN100000" {
		t.Fatalf("nextCode(99999) = %q", got)
	}
}

func TestCodeSuffix(t *testing.T) {
	cases := map[string]int{
		"STN00042":  42,
		"STN100000": 100000,
		"STN":       0,
		"STNxx":     0,
		"OTHER0001": 0,
	}
	for code, want := range cases {
		if got := codeSuffix(code); got != want {
			t.Fatalf("codeSuffix(%q) = %d, want %d", code, got, want)
		}
	}
}
