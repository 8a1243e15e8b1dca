package studio

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/raster"
	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

type memFetcher struct {
	images map[string][]byte
}

func (f *memFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	if data, ok := f.images[ref]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("no image %q", ref)
}

func (f *memFetcher) FetchAuthenticated(_ context.Context, ref string) ([]byte, error) {
	return nil, fmt.Errorf("no authenticated image %q", ref)
}

type fakeUploader struct {
	mu      sync.Mutex
	fail    error
	uploads map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return "", u.fail
	}
	if u.uploads == nil {
		u.uploads = map[string][]byte{}
	}
	u.uploads[name] = data
	return "mem://" + name, nil
}

func (u *fakeUploader) get(url string) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads[url[len("mem://"):]]
}

type fakeVersions struct {
	mu    sync.Mutex
	fail  error
	items map[string][]versions.Version
}

func (v *fakeVersions) EnsureOriginal(_ context.Context, itemID, url string) (versions.Version, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.items == nil {
		v.items = map[string][]versions.Version{}
	}
	if len(v.items[itemID]) == 0 {
		v.items[itemID] = []versions.Version{{ItemID: itemID, Number: 0, URL: url, CreatedAt: time.Now()}}
	}
	return v.items[itemID][0], nil
}

func (v *fakeVersions) AddVersion(_ context.Context, itemID, url string) (versions.Version, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fail != nil {
		return versions.Version{}, v.fail
	}
	if v.items == nil {
		v.items = map[string][]versions.Version{}
	}
	next := versions.Version{ItemID: itemID, Number: len(v.items[itemID]), URL: url, CreatedAt: time.Now()}
	v.items[itemID] = append(v.items[itemID], next)
	return next, nil
}

func (v *fakeVersions) RemoveVersion(_ context.Context, itemID string, number int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	list := v.items[itemID]
	for i, ver := range list {
		if ver.Number == number {
			v.items[itemID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return versions.ErrNotFound
}

func (v *fakeVersions) ListVersions(_ context.Context, itemID string) ([]versions.Version, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]versions.Version{}, v.items[itemID]...), nil
}

type fakeInpaint struct {
	prompt, imageRef, maskRef string
}

func (f *fakeInpaint) CreateInpaintJob(_ context.Context, prompt, imageRef, maskRef string) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt required")
	}
	f.prompt, f.imageRef, f.maskRef = prompt, imageRef, maskRef
	return "job-1", nil
}

type fixture struct {
	fetcher  *memFetcher
	uploader *fakeUploader
	versions *fakeVersions
	inpaint  *fakeInpaint
	cache    *imaging.ImageCache
	opts     Options
	logs     *test.Hook
}

// newFixture serves a 1400×900 mid-grey image at "img://base" and a small
// red logo at "img://logo".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	base, err := raster.EncodeBytes(raster.Filled(1400, 900, color.NRGBA{120, 130, 140, 255}))
	require.NoError(t, err)
	logo, err := raster.EncodeBytes(raster.Filled(40, 20, color.NRGBA{255, 0, 0, 255}))
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		fetcher:  &memFetcher{images: map[string][]byte{"img://base": base, "img://logo": logo}},
		uploader: &fakeUploader{},
		versions: &fakeVersions{},
		inpaint:  &fakeInpaint{},
		cache:    imaging.NewImageCache(),
		logs:     hook,
	}
	f.opts = Options{
		Loader:   imaging.NewLoader(f.fetcher, imaging.LoaderOptions{Logger: logger, Cache: f.cache}),
		Uploader: f.uploader,
		Versions: f.versions,
		Inpaint:  f.inpaint,
		Logger:   logger,
	}
	return f
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), f.opts, "item-1", "img://base")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}
