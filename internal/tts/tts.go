package tts

import "context"

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts text to speech and returns raw audio bytes.
	// The audio container is whatever the provider config selects.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
