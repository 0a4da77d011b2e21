package validators

// SourceType identifies the platform a URL belongs to
type SourceType string

const (
	SourceYouTube SourceType = "youtube"
	SourceUnknown SourceType = "unknown"
)

// ValidationResult contains the result of URL validation
type ValidationResult struct {
	Valid      bool       `json:"valid"`
	SourceType SourceType `json:"source_type"`
	MediaID    string     `json:"media_id,omitempty"`
	MediaType  string     `json:"media_type,omitempty"` // video, short or live
	URL        string     `json:"url"`
	Canonical  string     `json:"canonical_url,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Validator checks URLs of one video host
type Validator interface {
	// SourceType returns the source type this validator handles
	SourceType() SourceType

	// CanHandle returns true if the URL's host belongs to this source
	CanHandle(url string) bool

	// Validate validates the URL and extracts the media ID
	Validate(url string) ValidationResult
}
