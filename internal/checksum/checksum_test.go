package checksum

import "testing"

func TestSumKnownValue(t *testing.T) {
	// sha256("") is a fixed constant.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %q", got)
	}
}

func TestETagStableAndQuoted(t *testing.T) {
	a, err := ETag([]string{"x", "y"})
	if err != nil {
		t.Fatalf("ETag: %v", err)
	}
	b, _ := ETag([]string{"x", "y"})
	c, _ := ETag([]string{"y", "x"})
	if a != b {
		t.Errorf("same value gave different tags: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different order should give a different tag")
	}
	if a[0] != '"' || a[len(a)-1] != '"' {
		t.Errorf("tag not quoted: %s", a)
	}
}
