package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("CONSTITUENCIES_DARK_MODE", "1")
	if !DetectTheme("").IsDark {
		t.Fatalf("expected dark theme when CONSTITUENCIES_DARK_MODE=1")
	}
	if DetectTheme("light").IsDark {
		t.Fatalf("configured light theme must win over the environment")
	}

	t.Setenv("CONSTITUENCIES_DARK_MODE", "")
	if DetectTheme("auto").IsDark {
		t.Fatalf("expected light theme when nothing hints at dark")
	}
	if !DetectTheme("Dark").IsDark {
		t.Fatalf("expected dark theme when configured")
	}
}

func TestDetectTheme_ColorFGBG(t *testing.T) {
	t.Setenv("CONSTITUENCIES_DARK_MODE", "")

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme("").IsDark {
		t.Fatalf("black background should be dark")
	}

	t.Setenv("COLORFGBG", "0;default;15")
	if DetectTheme("").IsDark {
		t.Fatalf("white background should be light")
	}
}
