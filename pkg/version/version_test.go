package version

import (
	"strings"
	"testing"
)

func TestStringFallbacks(t *testing.T) {
	defer func(tg, c, d string) { tag, commit, date = tg, c, d }(tag, commit, date)

	tests := []struct {
		tag, commit     string
		wantStr, wantUA string
	}{
		{"", "unknown", "dev", "gowallet/dev ("},
		{"", "abc1234", "abc1234", "gowallet/abc1234 ("},
		{"v1.2.0", "abc1234", "v1.2.0", "gowallet/v1.2.0 ("},
	}
	for _, tt := range tests {
		tag, commit, date = tt.tag, tt.commit, "2026-01-01"
		if got := String(); got != tt.wantStr {
			t.Errorf("String() = %q, want %q", got, tt.wantStr)
		}
		if got := UserAgent(); !strings.HasPrefix(got, tt.wantUA) {
			t.Errorf("UserAgent() = %q, want prefix %q", got, tt.wantUA)
		}
	}
}

func TestFull(t *testing.T) {
	defer func(tg, c, d string) { tag, commit, date = tg, c, d }(tag, commit, date)
	tag, commit, date = "v1.0.0", "abc", "2026-01-01"
	if got, want := Full(), "v1.0.0 (abc) built 2026-01-01"; got != want {
		t.Errorf("Full() = %q, want %q", got, want)
	}
}
