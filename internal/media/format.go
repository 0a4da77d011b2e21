package media

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"
)

const unknownQuality = "unknown"

// Option is a download choice shown to the user
type Option struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Format   string `json:"format"`
	Quality  string `json:"quality"`
	Size     string `json:"size,omitempty"`
	MimeType string `json:"mimeType"`
}

// Info is the response of the info endpoint
type Info struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  string   `json:"duration"`
	Author    string   `json:"author"`
	Options   []Option `json:"options"`
}

// BuildInfo maps provider metadata to the info response
func BuildInfo(v *Video) *Info {
	return &Info{
		Title:     v.Title,
		Thumbnail: BestThumbnail(v.Thumbnails),
		Duration:  FormatDuration(v.Duration),
		Author:    v.Author,
		Options:   Options(v.Formats),
	}
}

// BestThumbnail returns the last thumbnail, which providers list in
// ascending resolution.
func BestThumbnail(thumbs []Thumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].URL
}

// Options maps every format that has both a container and a mime type,
// preserving provider order.
func Options(formats []Format) []Option {
	opts := make([]Option, 0, len(formats))
	for _, f := range formats {
		if f.Container == "" || f.MimeType == "" {
			continue
		}
		quality := f.QualityLabel
		if quality == "" {
			quality = f.AudioQuality
		}
		if quality == "" {
			quality = unknownQuality
		}
		opts = append(opts, Option{
			ID:       f.ID,
			Label:    f.Container + " - " + quality,
			Format:   f.Container,
			Quality:  quality,
			Size:     FormatSize(f.ContentLength),
			MimeType: f.MimeType,
		})
	}
	return opts
}

// Select returns the first format whose container equals container (or whose
// mime type contains it) and whose quality label or audio quality equals
// quality. Provider order decides ties.
func Select(formats []Format, container, quality string) (*Format, bool) {
	for i := range formats {
		f := &formats[i]
		containerMatch := f.Container == container || strings.Contains(f.MimeType, container)
		qualityMatch := f.QualityLabel == quality || f.AudioQuality == quality
		if containerMatch && qualityMatch {
			return f, true
		}
	}
	return nil, false
}

// FormatDuration renders d as "1h 2m 3s", omitting zero parts. A zero
// duration renders as "0s".
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(seconds, 10)+"s")
	}
	return strings.Join(parts, " ")
}

// FormatSize renders a byte count in MiB with two decimals, or "" when unknown
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return ""
	}
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}

// ContainerFromMime derives the container from a mime type such as
// `video/mp4; codecs="avc1.4d401f"`.
func ContainerFromMime(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType, _, _ = strings.Cut(mimeType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}
	return subtype
}
