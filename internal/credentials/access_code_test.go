package credentials

import (
	"regexp"
	"testing"
)

func TestGenerateAccessCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{2}$`)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateAccessCode()
		if err != nil {
			t.Fatalf("GenerateAccessCode() error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match color-animal-NN", code)
		}
		seen[code] = true
	}

	// 16*16*100 possible codes; 200 draws collapsing to a handful would
	// indicate a broken random source
	if len(seen) < 100 {
		t.Errorf("only %d distinct codes out of 200 draws", len(seen))
	}
}
