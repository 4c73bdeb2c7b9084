package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextExtractorOutput(t *testing.T) {
	// Shape of real extractor output: NUL runs between glyphs, CRLF line
	// breaks, CJK body text. Structure must survive, garbage must not.
	in := "Attention Is All\x00 You Need\r\n\x00\x00Ashish Vaswani\x07 et al.\r\n\r\n注意力机制\x00综述"
	out := SanitizeText(in)
	want := "Attention Is All You Need\r\nAshish Vaswani et al.\r\n\r\n注意力机制综述"
	if out != want {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextAllGarbageBecomesEmpty(t *testing.T) {
	if out := SanitizeText("\x00\x01\x02 \n\t "); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
