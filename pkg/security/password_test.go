package security

import (
	"strings"
	"testing"
)

func TestGenerateTempPasswordLength(t *testing.T) {
	cases := map[int]int{0: defaultGeneratedLength, 4: minGeneratedLength, 32: 32}
	for in, want := range cases {
		got, err := GenerateTempPassword(in)
		if err != nil {
			t.Fatalf("generate(%d): %v", in, err)
		}
		if len([]rune(got)) != want {
			t.Fatalf("generate(%d): expected length %d, got %d", in, want, len(got))
		}
		for _, r := range got {
			if !strings.ContainsRune(string(tempPasswordCharset), r) {
				t.Fatalf("unexpected rune %q", r)
			}
		}
	}
}

func TestGenerateTempPasswordVaries(t *testing.T) {
	a, _ := GenerateTempPassword(24)
	b, _ := GenerateTempPassword(24)
	if a == b {
		t.Fatalf("expected distinct passwords")
	}
}

func TestRandIntRejectsEmptyRange(t *testing.T) {
	if _, err := randInt(0); err == nil {
		t.Fatalf("expected error")
	}
}
