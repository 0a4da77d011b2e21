package media

import (
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		title     string
		container string
		want      string
	}{
		{"My Video", "mp4", "My Video.mp4"},
		{"My Video", "", "My Video.mp4"},
		{"a/b\\c:d*e?f\"g<h>i|j", "webm", "a_b_c_d_e_f_g_h_i_j.webm"},
		{"  spaced\t\tout  ", "mp4", "spaced out.mp4"},
		{"line\nbreak", "mp4", "line break.mp4"},
		{"bell\x07", "mp4", "bell.mp4"},
		{"", "mp4", "video.mp4"},
		{"...", "mp4", "video.mp4"},
		{"Café déjà vu", "mp4", "Café déjà vu.mp4"},
	}
	for _, tt := range tests {
		if got := Filename(tt.title, tt.container); got != tt.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tt.title, tt.container, got, tt.want)
		}
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	got := SanitizeTitle(strings.Repeat("x", 500))
	if len([]rune(got)) != maxFilenameRunes {
		t.Errorf("expected %d runes, got %d", maxFilenameRunes, len([]rune(got)))
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "ascii",
			filename: "My Video.mp4",
			want:     `attachment; filename="My Video.mp4"`,
		},
		{
			name:     "diacritics folded",
			filename: "Café.mp4",
			want:     `attachment; filename="Cafe.mp4"; filename*=UTF-8''Caf%C3%A9.mp4`,
		},
		{
			name:     "non-latin replaced",
			filename: "日本.webm",
			want:     `attachment; filename="__.webm"; filename*=UTF-8''%E6%97%A5%E6%9C%AC.webm`,
		},
		{
			name:     "percent is not passed through",
			filename: "100% fun.mp4",
			want:     `attachment; filename="100_ fun.mp4"; filename*=UTF-8''100%25%20fun.mp4`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentDisposition(tt.filename); got != tt.want {
				t.Errorf("ContentDisposition(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestThumbnailFilename(t *testing.T) {
	tests := []struct {
		title       string
		contentType string
		want        string
	}{
		{"My Thumb", "image/jpeg", "My_Thumb.jpg"},
		{"", "image/png", "thumbnail.png"},
		{"cool-art_2", "image/webp", "cool-art_2.webp"},
		{"é!", "", "__.jpg"},
	}
	for _, tt := range tests {
		if got := ThumbnailFilename(tt.title, tt.contentType); got != tt.want {
			t.Errorf("ThumbnailFilename(%q, %q) = %q, want %q", tt.title, tt.contentType, got, tt.want)
		}
	}
}
