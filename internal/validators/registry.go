package validators

import "sync"

// Registry dispatches URLs to the validator of their host
type Registry struct {
	mu         sync.RWMutex
	validators []Validator
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a validator to the registry
func (r *Registry) Register(v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = append(r.validators, v)
}

// Validate finds the validator for the URL's host and validates it
func (r *Registry) Validate(url string) ValidationResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.validators {
		if v.CanHandle(url) {
			return v.Validate(url)
		}
	}

	return ValidationResult{
		SourceType: SourceUnknown,
		URL:        url,
		Error:      "unsupported URL format",
	}
}

// SupportedSources returns the registered source types in registration order
func (r *Registry) SupportedSources() []SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]SourceType, 0, len(r.validators))
	for _, v := range r.validators {
		sources = append(sources, v.SourceType())
	}
	return sources
}

// DefaultRegistry creates a registry with the video hosts the service can resolve
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewYouTubeValidator())
	return r
}
