package studio

import (
	"context"
	"errors"

	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

var (
	// ErrUploadFailure wraps errors returned by the Uploader.
	ErrUploadFailure = errors.New("upload failure")

	// ErrVersioningFailure wraps errors returned by the VersionStore.
	ErrVersioningFailure = errors.New("versioning failure")

	// ErrInpaintFailure wraps errors returned by the InpaintClient.
	ErrInpaintFailure = errors.New("inpaint job failure")
)

// Uploader persists an encoded image and returns a reference to it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// VersionStore keeps the immutable version history of edited items.
type VersionStore interface {
	EnsureOriginal(ctx context.Context, itemID, url string) (versions.Version, error)
	AddVersion(ctx context.Context, itemID, url string) (versions.Version, error)
	RemoveVersion(ctx context.Context, itemID string, number int) error
	ListVersions(ctx context.Context, itemID string) ([]versions.Version, error)
}

// InpaintClient starts an inpainting job for a mask. The job is polled
// elsewhere.
type InpaintClient interface {
	CreateInpaintJob(ctx context.Context, prompt, imageRef, maskRef string) (string, error)
}
