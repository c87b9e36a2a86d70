package adapter

import "context"

// FetchedImage is the validated result of downloading an image reference.
type FetchedImage struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// ImageFetcher retrieves and validates remote image bytes.
//
// Implementations classify failures via domain.StageError: network and
// timeout conditions are transient, validation failures (bad content type,
// undersized dimensions, oversized payload) are invalid since the source
// bytes will not change on retry.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedImage, error)
}
