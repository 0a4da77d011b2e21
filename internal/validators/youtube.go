package validators

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Hosts whose /watch URLs carry the id in the v query parameter
var queryHosts = map[string]bool{
	"youtube.com":        true,
	"www.youtube.com":    true,
	"m.youtube.com":      true,
	"music.youtube.com":  true,
	"gaming.youtube.com": true,
}

// Hosts that only carry ids in the path
var pathHosts = map[string]bool{
	"youtu.be":                 true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
}

// Path prefixes that carry a video id, with the media type they imply
var pathPrefixes = []struct {
	prefix    string
	mediaType string
}{
	{"/embed/", "video"},
	{"/v/", "video"},
	{"/shorts/", "short"},
	{"/live/", "live"},
}

// YouTubeValidator validates YouTube video URLs
type YouTubeValidator struct{}

// NewYouTubeValidator creates a new YouTube URL validator
func NewYouTubeValidator() *YouTubeValidator {
	return &YouTubeValidator{}
}

// SourceType returns the source type for this validator
func (v *YouTubeValidator) SourceType() SourceType {
	return SourceYouTube
}

// CanHandle returns true if the URL's host is a YouTube host
func (v *YouTubeValidator) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return queryHosts[host] || pathHosts[host]
}

// Validate validates a YouTube URL and extracts the video ID
func (v *YouTubeValidator) Validate(rawURL string) ValidationResult {
	rawURL = strings.TrimSpace(rawURL)
	result := ValidationResult{SourceType: SourceYouTube, URL: rawURL}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		result.Error = "invalid URL format"
		return result
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		result.Error = "invalid URL scheme"
		return result
	}

	host := strings.ToLower(parsed.Hostname())
	var videoID, mediaType string

	switch {
	case host == "youtu.be":
		videoID, _, _ = strings.Cut(strings.TrimPrefix(parsed.Path, "/"), "/")
		mediaType = "video"
	case queryHosts[host] && strings.HasPrefix(parsed.Path, "/watch"):
		videoID = parsed.Query().Get("v")
		mediaType = "video"
	case queryHosts[host] || pathHosts[host]:
		videoID, mediaType = idFromPath(parsed.Path)
	default:
		result.Error = "not a YouTube URL"
		return result
	}

	if videoID == "" {
		result.Error = "could not extract video ID from URL"
		return result
	}

	result.MediaID = videoID
	if !videoIDPattern.MatchString(videoID) {
		result.Error = "invalid video ID format"
		return result
	}

	result.Valid = true
	result.MediaType = mediaType
	result.Canonical = "https://www.youtube.com/watch?v=" + videoID
	return result
}

func idFromPath(path string) (videoID, mediaType string) {
	for _, p := range pathPrefixes {
		if rest, ok := strings.CutPrefix(path, p.prefix); ok {
			videoID, _, _ = strings.Cut(rest, "/")
			return videoID, p.mediaType
		}
	}
	return "", ""
}
