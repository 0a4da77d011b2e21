package ytdlp

import "errors"

var (
	// ErrVideoUnavailable indicates the video is not available
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrVideoPrivate indicates the video is private
	ErrVideoPrivate = errors.New("video is private")

	// ErrAgeRestricted indicates the content is age-restricted
	ErrAgeRestricted = errors.New("content is age-restricted")

	// ErrNetworkError indicates a network-related error
	ErrNetworkError = errors.New("network error")

	// ErrRateLimited indicates the host throttled the extractor
	ErrRateLimited = errors.New("rate limited by host")

	// ErrURLNotSupported indicates yt-dlp has no extractor for the URL
	ErrURLNotSupported = errors.New("url not supported")

	// ErrYtdlpNotFound indicates yt-dlp is not installed
	ErrYtdlpNotFound = errors.New("yt-dlp not found in PATH")

	// ErrExtractFailed indicates yt-dlp failed for another reason
	ErrExtractFailed = errors.New("extraction failed")

	// ErrForeignVideo indicates a video was not produced by this provider
	ErrForeignVideo = errors.New("video was not resolved by yt-dlp")
)

// ExtractError wraps a yt-dlp failure with the URL and operation
type ExtractError struct {
	URL     string
	Op      string
	Message string
	Err     error
}

func (e *ExtractError) Error() string {
	msg := e.Op + " " + e.URL + ": " + e.Message
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
