package ytdlp

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/renderdragon/backend/internal/media"
)

var qualityLabelPattern = regexp.MustCompile(`^\d{3,4}p\d*`)

// Output is the subset of `yt-dlp --dump-json` the provider reads
type Output struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	Channel    string   `json:"channel"`
	Duration   float64  `json:"duration"`
	Thumbnail  string   `json:"thumbnail"`
	Thumbnails []Thumb  `json:"thumbnails"`
	WebpageURL string   `json:"webpage_url"`
	Formats    []Format `json:"formats"`
}

// Thumb represents a thumbnail entry
type Thumb struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Format represents one entry of the formats list
type Format struct {
	FormatID       string  `json:"format_id"`
	FormatNote     string  `json:"format_note"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	Abr            float64 `json:"abr"`
	Tbr            float64 `json:"tbr"`
	Protocol       string  `json:"protocol"`
}

// ToVideo maps yt-dlp output to provider-neutral metadata
func (o *Output) ToVideo() *media.Video {
	author := o.Uploader
	if author == "" {
		author = o.Channel
	}

	thumbs := make([]media.Thumbnail, 0, len(o.Thumbnails)+1)
	for _, t := range o.Thumbnails {
		if t.URL == "" {
			continue
		}
		thumbs = append(thumbs, media.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}
	if len(thumbs) == 0 && o.Thumbnail != "" {
		thumbs = append(thumbs, media.Thumbnail{URL: o.Thumbnail})
	}

	formats := make([]media.Format, 0, len(o.Formats))
	for i := range o.Formats {
		formats = append(formats, o.Formats[i].toFormat())
	}

	return &media.Video{
		ID:         o.ID,
		Title:      o.Title,
		Author:     author,
		Duration:   time.Duration(o.Duration * float64(time.Second)),
		Thumbnails: thumbs,
		Formats:    formats,
		Source:     o,
	}
}

func (f *Format) hasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

func (f *Format) hasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

func (f *Format) toFormat() media.Format {
	size := f.Filesize
	if size == 0 {
		size = f.FilesizeApprox
	}

	out := media.Format{
		ID:            f.FormatID,
		Container:     f.Ext,
		MimeType:      f.mimeType(),
		ContentLength: size,
		Bitrate:       int(f.Tbr * 1000),
	}

	switch {
	case f.hasVideo():
		out.QualityLabel = f.qualityLabel()
	case f.hasAudio():
		out.AudioQuality = f.audioQuality()
	}
	return out
}

// mimeType builds a mime type in the shape the native provider reports.
// Storyboards and other formats without audio or video get none.
func (f *Format) mimeType() string {
	if f.Ext == "" || f.Ext == "mhtml" {
		return ""
	}

	var kind string
	switch {
	case f.hasVideo():
		kind = "video"
	case f.hasAudio():
		kind = "audio"
	default:
		return ""
	}

	codecs := make([]string, 0, 2)
	if f.hasVideo() {
		codecs = append(codecs, f.VCodec)
	}
	if f.hasAudio() {
		codecs = append(codecs, f.ACodec)
	}
	return fmt.Sprintf(`%s/%s; codecs="%s"`, kind, f.Ext, strings.Join(codecs, ", "))
}

func (f *Format) qualityLabel() string {
	if qualityLabelPattern.MatchString(f.FormatNote) {
		return qualityLabelPattern.FindString(f.FormatNote)
	}
	if f.Height > 0 {
		return fmt.Sprintf("%dp", f.Height)
	}
	return f.FormatNote
}

func (f *Format) audioQuality() string {
	switch strings.ToLower(f.FormatNote) {
	case "ultralow", "low":
		return "AUDIO_QUALITY_LOW"
	case "medium":
		return "AUDIO_QUALITY_MEDIUM"
	case "high":
		return "AUDIO_QUALITY_HIGH"
	}
	switch {
	case f.Abr <= 0:
		return ""
	case f.Abr < 64:
		return "AUDIO_QUALITY_LOW"
	case f.Abr < 160:
		return "AUDIO_QUALITY_MEDIUM"
	default:
		return "AUDIO_QUALITY_HIGH"
	}
}
