package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// ErrLoadFailure marks a source image that could not be fetched or decoded.
// It wraps both the direct and the fallback fetch errors, or the timeout.
var ErrLoadFailure = errors.New("load failure")

const (
	// DefaultLoadTimeout bounds a whole load: direct fetch, fallback fetch and decode.
	DefaultLoadTimeout = 12 * time.Second

	// DefaultPreviewWidth and DefaultPreviewHeight cap the interactive preview buffer.
	DefaultPreviewWidth  = 700
	DefaultPreviewHeight = 450
)

// Source is a decoded image at native and preview resolution.
type Source struct {
	// Ref is the reference the image was loaded from.
	Ref string

	// Format is the decoder name reported by image.DecodeConfig ("png", "jpeg", ...).
	Format string

	// Native is the full-resolution buffer. It is shared with the cache and must
	// be treated as read-only; callers Clone before mutating.
	Native *raster.Buffer

	// Preview is Native scaled to fit the preview cap, aspect preserved.
	// It is never larger than Native.
	Preview *raster.Buffer
}

// LoaderOptions configures a Loader. Zero values fall back to the defaults above.
type LoaderOptions struct {
	Timeout          time.Duration
	PreviewMaxWidth  int
	PreviewMaxHeight int
	Logger           logrus.FieldLogger
	Cache            *ImageCache
}

// Loader resolves image references to Sources.
//
// Each load tries Fetcher.Fetch first and falls back to Fetcher.FetchAuthenticated
// when the direct fetch fails, which covers cross-origin and proxied sources that
// only the authenticated download path can reach. The whole attempt is bounded by
// the configured timeout; a load that does not resolve in time fails with
// ErrLoadFailure instead of hanging. There is no automatic retry.
//
// Loader is safe for concurrent use.
type Loader struct {
	fetcher Fetcher
	timeout time.Duration
	maxW    int
	maxH    int
	log     logrus.FieldLogger
	cache   *ImageCache
}

// NewLoader creates a Loader around fetcher.
func NewLoader(fetcher Fetcher, opts LoaderOptions) *Loader {
	l := &Loader{
		fetcher: fetcher,
		timeout: opts.Timeout,
		maxW:    opts.PreviewMaxWidth,
		maxH:    opts.PreviewMaxHeight,
		log:     opts.Logger,
		cache:   opts.Cache,
	}
	if l.timeout <= 0 {
		l.timeout = DefaultLoadTimeout
	}
	if l.maxW <= 0 {
		l.maxW = DefaultPreviewWidth
	}
	if l.maxH <= 0 {
		l.maxH = DefaultPreviewHeight
	}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}
	return l
}

type loadResult struct {
	src *Source
	err error
}

// Load fetches and decodes ref.
//
// Returns:
//   - *Source: native and preview buffers.
//   - error: wraps ErrLoadFailure when both fetch paths fail, when decoding
//     fails or yields zero dimensions, or when the timeout elapses.
func (l *Loader) Load(ctx context.Context, ref string) (*Source, error) {
	if l.cache != nil {
		if src, ok := l.cache.Get(ref); ok {
			return src, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	done := make(chan loadResult, 1)
	go func() {
		src, err := l.load(ctx, ref)
		done <- loadResult{src: src, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			l.log.WithField("ref", ref).WithError(res.err).Warn("image load failed")
			return nil, res.err
		}
		if l.cache != nil {
			l.cache.Put(ref, res.src)
		}
		return res.src, nil
	case <-ctx.Done():
		l.log.WithField("ref", ref).Warn("image load timed out")
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailure, ref, ctx.Err())
	}
}

func (l *Loader) load(ctx context.Context, ref string) (*Source, error) {
	data, err := l.fetcher.Fetch(ctx, ref)
	if err != nil {
		l.log.WithField("ref", ref).WithError(err).Debug("direct fetch failed, trying authenticated download")
		fallback, ferr := l.fetcher.FetchAuthenticated(ctx, ref)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailure, ref, errors.Join(err, ferr))
		}
		data = fallback
	}
	return l.Decode(ref, data)
}

// Decode turns already-fetched bytes into a Source without touching the network.
// EXIF orientation is applied so the buffer matches what a browser displays.
func (l *Loader) Decode(ref string, data []byte) (*Source, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to decode image: %w", ErrLoadFailure, ref, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to decode image: %w", ErrLoadFailure, ref, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s: image has zero dimensions", ErrLoadFailure, ref)
	}

	native := raster.FromImage(img)
	return &Source{
		Ref:     ref,
		Format:  format,
		Native:  native,
		Preview: PreviewOf(native, l.maxW, l.maxH),
	}, nil
}

// Evict drops refs from the loader's cache, if it has one.
func (l *Loader) Evict(refs ...string) {
	if l.cache == nil {
		return
	}
	for _, ref := range refs {
		l.cache.Evict(ref)
	}
}

// Preview scales b to the loader's preview cap.
func (l *Loader) Preview(b *raster.Buffer) *raster.Buffer {
	return PreviewOf(b, l.maxW, l.maxH)
}

// PreviewOf scales b down to fit within maxW×maxH, preserving aspect ratio.
// Buffers that already fit are cloned unchanged.
func PreviewOf(b *raster.Buffer, maxW, maxH int) *raster.Buffer {
	if b.Width <= maxW && b.Height <= maxH {
		return b.Clone()
	}
	return raster.FromImage(imaging.Fit(b.Image(), maxW, maxH, imaging.Lanczos))
}

// ImageCache provides thread-safe caching of loaded sources to avoid redundant
// fetches of the same reference.
//
// Cached sources remain in memory until explicitly removed via Evict() or Clear().
// Studio sessions evict the references they loaded when they switch images or
// close.
type ImageCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		sources: make(map[string]*Source),
	}
}

// Get returns the cached source for ref, if any.
func (c *ImageCache) Get(ref string) (*Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[ref]
	return src, ok
}

// Put stores src under ref, replacing any previous entry.
func (c *ImageCache) Put(ref string, src *Source) {
	c.mu.Lock()
	c.sources[ref] = src
	c.mu.Unlock()
}

// Clear removes all sources from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.sources = make(map[string]*Source)
	c.mu.Unlock()
}

// Evict removes a specific source from the cache by its reference.
//
// If the reference is not in the cache, this method does nothing.
func (c *ImageCache) Evict(ref string) {
	c.mu.Lock()
	delete(c.sources, ref)
	c.mu.Unlock()
}

// Len reports the number of cached sources.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}
