package studio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-studio-mcp/internal/adjust"
	"github.com/ironsheep/image-studio-mcp/internal/filters"
	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/overlay"
	"github.com/ironsheep/image-studio-mcp/internal/paint"
	"github.com/ironsheep/image-studio-mcp/internal/raster"
	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

// Mode is the active editor of a session.
type Mode string

const (
	ModeAdjust  Mode = "adjust"
	ModePaint   Mode = "paint"
	ModeOverlay Mode = "overlay"
)

var (
	ErrUnknownMode      = errors.New("unknown studio mode")
	ErrCommitInProgress = errors.New("a commit is in progress")
	ErrNothingToCommit  = errors.New("nothing to commit")
	ErrHighlightIsMask  = errors.New("highlight strokes are committed as an inpainting mask")
	ErrNoUploader       = errors.New("no uploader configured")
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(name); m {
	case ModeAdjust, ModePaint, ModeOverlay:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Options wires a session to its collaborators. Loader is required; the rest
// may be nil, in which case the matching commit step is skipped or fails.
type Options struct {
	Loader   *imaging.Loader
	Uploader Uploader
	Versions VersionStore
	Inpaint  InpaintClient
	Logger   logrus.FieldLogger
}

// Info summarises a session.
type Info struct {
	ID            string `json:"id"`
	ItemID        string `json:"itemId"`
	Ref           string `json:"ref"`
	Format        string `json:"format"`
	Mode          Mode   `json:"mode"`
	NativeWidth   int    `json:"nativeWidth"`
	NativeHeight  int    `json:"nativeHeight"`
	PreviewWidth  int    `json:"previewWidth"`
	PreviewHeight int    `json:"previewHeight"`
	Filters       int    `json:"filters"`
	Overlays      int    `json:"overlays"`
	Commits       int    `json:"commits"`
}

// CommitResult describes a successful commit.
type CommitResult struct {
	Kind    string            `json:"kind"`
	URL     string            `json:"url"`
	Version *versions.Version `json:"version,omitempty"`
	JobID   string            `json:"jobId,omitempty"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Bytes   int               `json:"bytes"`
}

// Session is one edit of one image. Methods are safe for concurrent use; a
// commit renders without holding the session lock, and edits are rejected
// with ErrCommitInProgress until it finishes.
type Session struct {
	mu       sync.Mutex
	id       string
	opts     Options
	log      logrus.FieldLogger
	exporter *Exporter

	itemID  string
	ref     string // reference of the current base: the source or the last committed version
	format  string
	native  *raster.Buffer
	preview *Preview

	mode     Mode
	settings adjust.Settings
	stack    *filters.Stack
	painter  *paint.Engine
	overlays *overlay.Compositor

	// layers holds the paint layers scaled to the preview, keyed by engine
	// revision.
	layers previewLayers

	committing bool
	commits    int

	// loaded holds the references fetched through the loader for the current
	// image, evicted from its cache on switch and close.
	loaded map[string]struct{}
}

// NewSession loads ref and opens a session on it.
func NewSession(ctx context.Context, opts Options, itemID, ref string) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	s := &Session{
		id:   uuid.NewString(),
		opts: opts,
	}
	s.log = opts.Logger.WithField("session", s.id)
	s.exporter = NewExporter(s.log)
	if err := s.Open(ctx, itemID, ref); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Open switches the session to another image. All editing state is torn down
// and rebuilt. On failure the previous image stays open.
func (s *Session) Open(ctx context.Context, itemID, ref string) error {
	src, err := s.opts.Loader.Load(ctx, ref)
	if err != nil {
		return err
	}
	if itemID == "" {
		itemID = ref
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	stale := s.loaded
	delete(stale, ref)
	s.evict(stale)
	s.loaded = map[string]struct{}{ref: {}}
	s.itemID = itemID
	s.ref = ref
	s.format = src.Format
	s.commits = 0
	s.mode = ModeAdjust
	s.rebase(src.Native, src.Preview)
	s.overlays = overlay.NewCompositor(src.Native.Width, src.Native.Height)
	s.overlays.SetViewport(previewViewport(src.Preview))

	if s.opts.Versions != nil {
		if _, err := s.opts.Versions.EnsureOriginal(ctx, itemID, ref); err != nil {
			s.log.WithError(err).Warn("could not record original version")
		}
	}
	s.log.WithFields(logrus.Fields{
		"item":   itemID,
		"ref":    ref,
		"width":  src.Native.Width,
		"height": src.Native.Height,
	}).Info("studio session opened")
	return nil
}

// rebase makes native the new base and resets adjust and paint state.
// Overlay elements are kept; their geometry is normalised.
func (s *Session) rebase(native, preview *raster.Buffer) {
	s.native = native
	s.preview = NewPreview(preview)
	s.settings = adjust.Neutral()
	s.stack = filters.NewStack()
	s.painter = nil
}

func previewViewport(p *raster.Buffer) raster.Viewport {
	return raster.Viewport{Width: float64(p.Width), Height: float64(p.Height)}
}

// Info reports the session's current state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:            s.id,
		ItemID:        s.itemID,
		Ref:           s.ref,
		Format:        s.format,
		Mode:          s.mode,
		NativeWidth:   s.native.Width,
		NativeHeight:  s.native.Height,
		PreviewWidth:  s.preview.Base().Width,
		PreviewHeight: s.preview.Base().Height,
		Filters:       s.stack.Len(),
		Overlays:      s.overlays.Len(),
		Commits:       s.commits,
	}
}

// Mode returns the active editor.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches editors. The state of each editor is kept.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	return s.edit(func() error {
		s.mode = m
		return nil
	})
}

// edit runs fn under the lock unless a commit is running.
func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	return fn()
}

// Settings returns the current adjustments.
func (s *Session) Settings() adjust.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetAdjustments replaces all nine sliders; values are clamped.
func (s *Session) SetAdjustments(a adjust.Settings) error {
	return s.edit(func() error {
		s.settings = a.Normalize()
		return nil
	})
}

// SetAdjustment sets one slider by its JSON name.
func (s *Session) SetAdjustment(name string, value float64) error {
	return s.edit(func() error {
		next := s.settings
		if err := next.Set(name, value); err != nil {
			return err
		}
		s.settings = next
		return nil
	})
}

// Filters runs fn against the filter stack.
func (s *Session) Filters(fn func(*filters.Stack) error) error {
	return s.edit(func() error { return fn(s.stack) })
}

// Recipe returns the current adjust-mode edit.
func (s *Session) Recipe() Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipe()
}

func (s *Session) recipe() Recipe {
	return Recipe{Adjustments: s.settings, Filters: s.stack.Entries()}
}

// ApplyRecipe replaces the adjustments and the filter stack.
func (s *Session) ApplyRecipe(r Recipe) error {
	stack, err := filters.NewStackFrom(r.Filters)
	if err != nil {
		return err
	}
	return s.edit(func() error {
		s.settings = r.Adjustments.Normalize()
		s.stack = stack
		return nil
	})
}

// Paint runs fn against the paint engine, creating it on first use. The
// engine works on the native base; its viewport defaults to the preview size
// so pointer positions can be given in preview pixels.
func (s *Session) Paint(fn func(*paint.Engine) error) error {
	return s.edit(func() error { return fn(s.paintEngine()) })
}

func (s *Session) paintEngine() *paint.Engine {
	if s.painter == nil {
		s.painter = paint.NewEngine(s.native)
		s.painter.SetViewport(previewViewport(s.preview.Base()))
	}
	return s.painter
}

// Overlays runs fn against the overlay compositor.
func (s *Session) Overlays(fn func(*overlay.Compositor) error) error {
	return s.edit(func() error { return fn(s.overlays) })
}

// Elements returns a copy of the overlay elements.
func (s *Session) Elements() []overlay.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlays.Elements()
}

// PaintStatus describes the paint engine of a session. Edited covers clone
// and colorize strokes, Marked the highlight strokes.
type PaintStatus struct {
	Tool        paint.Tool    `json:"tool"`
	State       string        `json:"state"`
	Diameter    int           `json:"diameter"`
	Opacity     float64       `json:"opacity"`
	Touched     bool          `json:"touched"`
	Edited      bool          `json:"edited"`
	Marked      bool          `json:"marked"`
	CloneSource *raster.Point `json:"cloneSource,omitempty"`
}

// PaintStatus reports the paint engine's tool and stroke state.
func (s *Session) PaintStatus() PaintStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.painter == nil {
		return PaintStatus{
			Tool:     paint.Colorize,
			State:    paint.Idle.String(),
			Diameter: paint.DefaultDiameter,
			Opacity:  paint.DefaultOpacity,
		}
	}
	e := s.painter
	st := PaintStatus{
		Tool:     e.Tool(),
		State:    e.State().String(),
		Diameter: e.Diameter(),
		Opacity:  e.Opacity(),
		Edited:   e.Edited(),
		Marked:   e.Marked(),
	}
	st.Touched = st.Edited || st.Marked
	if p, ok := e.CloneSource(); ok {
		st.CloneSource = &p
	}
	return st
}

// AddOverlayImage loads ref and adds it as a centred image element.
func (s *Session) AddOverlayImage(ctx context.Context, ref string) (overlay.Element, error) {
	src, err := s.opts.Loader.Load(ctx, ref)
	if err != nil {
		return overlay.Element{}, err
	}
	var el overlay.Element
	err = s.edit(func() error {
		var aerr error
		el, aerr = s.overlays.AddImage(ref, src.Native.Image())
		if aerr == nil && s.loaded != nil {
			s.loaded[ref] = struct{}{}
		}
		return aerr
	})
	return el, err
}

// RenderPreview recomputes the preview for the active mode.
func (s *Session) RenderPreview() (*raster.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview.Render(s.previewFunc())
}

func (s *Session) previewFunc() func(*raster.Buffer) (*raster.Buffer, error) {
	switch s.mode {
	case ModePaint:
		if s.painter == nil {
			return func(base *raster.Buffer) (*raster.Buffer, error) { return base.Clone(), nil }
		}
		l := s.paintLayers()
		return func(base *raster.Buffer) (*raster.Buffer, error) {
			out, err := paint.ExportMerged(base, l.edits)
			if err != nil {
				return nil, err
			}
			return paint.ExportMerged(out, l.marks)
		}
	case ModeOverlay:
		elements := s.overlays.Elements()
		return func(base *raster.Buffer) (*raster.Buffer, error) {
			return overlay.Composite(base, elements, "")
		}
	default:
		r := s.recipe()
		return func(base *raster.Buffer) (*raster.Buffer, error) {
			return r.Render(base), nil
		}
	}
}

type previewLayers struct {
	engine *paint.Engine
	rev    uint64
	edits  *raster.Buffer
	marks  *raster.Buffer
}

// paintLayers scales the engine's layers to the preview, reusing the last
// result while the engine is unchanged. Marks are shown in the preview but
// never reach a commit.
func (s *Session) paintLayers() previewLayers {
	e := s.painter
	if s.layers.engine == e && s.layers.rev == e.Revision() && s.layers.edits != nil {
		return s.layers
	}
	pb := s.preview.Base()
	scale := func(layer func() *raster.Buffer, used bool) *raster.Buffer {
		if !used {
			return raster.New(pb.Width, pb.Height)
		}
		return s.opts.Loader.Preview(layer())
	}
	s.layers = previewLayers{
		engine: e,
		rev:    e.Revision(),
		edits:  scale(e.Edits, e.Edited()),
		marks:  scale(e.Marks, e.Marked()),
	}
	return s.layers
}

// Preview returns the latest preview render without recomputing it.
func (s *Session) Preview() *raster.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview.Current()
}

// PreviewRenders counts preview renders since the base last changed.
func (s *Session) PreviewRenders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview.Renders()
}

// SampleColor reads a pixel of the latest preview render.
func (s *Session) SampleColor(x, y int) (*imaging.ColorResult, error) {
	return imaging.SampleColor(s.Preview(), x, y)
}

// Compare diffs the latest preview render against the unedited preview.
func (s *Session) Compare() (*raster.DiffResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return raster.Diff(s.preview.Base(), s.preview.Current())
}

// Commit exports the active editor at native resolution, uploads it and adds
// a version. Adjust mode commits the recipe; paint mode the merged strokes of
// the clone or colorize tool; overlay mode every element.
func (s *Session) Commit(ctx context.Context) (*CommitResult, error) {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()

	switch mode {
	case ModePaint:
		return s.commitPaint(ctx)
	case ModeOverlay:
		return s.CommitOverlays(ctx, "")
	default:
		return s.commitAdjust(ctx)
	}
}

func (s *Session) commitAdjust(ctx context.Context) (*CommitResult, error) {
	return s.commit(ctx, "adjust", func() (RenderFunc, func(*raster.Buffer, string), error) {
		r := s.recipe()
		if r.IsNeutral() {
			return nil, nil, ErrNothingToCommit
		}
		native := s.native
		render := func() (*raster.Buffer, error) { return r.Render(native), nil }
		return render, s.rebaseTo, nil
	})
}

func (s *Session) commitPaint(ctx context.Context) (*CommitResult, error) {
	return s.commit(ctx, "paint", func() (RenderFunc, func(*raster.Buffer, string), error) {
		p := s.painter
		if p == nil || !p.Edited() {
			if p != nil && p.Marked() {
				return nil, nil, ErrHighlightIsMask
			}
			return nil, nil, ErrNothingToCommit
		}
		base, edits := p.Base(), p.Edits()
		render := func() (*raster.Buffer, error) { return paint.ExportMerged(base, edits) }
		// The engine survives the rebase so pending highlight marks and
		// brush settings carry over to the new base.
		done := func(out *raster.Buffer, url string) {
			s.rebaseTo(out, url)
			p.Rebase(out)
			s.painter = p
		}
		return render, done, nil
	})
}

// CommitOverlays flattens every element, or only targetID, onto the base and
// commits the result. A single-element commit keeps the other elements
// editable.
func (s *Session) CommitOverlays(ctx context.Context, targetID string) (*CommitResult, error) {
	return s.commit(ctx, "overlay", func() (RenderFunc, func(*raster.Buffer, string), error) {
		if s.overlays.Len() == 0 {
			return nil, nil, ErrNothingToCommit
		}
		if targetID != "" {
			if _, ok := s.overlays.Get(targetID); !ok {
				return nil, nil, fmt.Errorf("%w: %s", overlay.ErrElementNotFound, targetID)
			}
		}
		native, elements := s.native, s.overlays.Elements()
		render := func() (*raster.Buffer, error) { return overlay.Composite(native, elements, targetID) }
		done := func(out *raster.Buffer, url string) {
			s.rebaseTo(out, url)
			if targetID == "" {
				s.overlays.Clear()
			} else {
				_ = s.overlays.Remove(targetID)
			}
		}
		return render, done, nil
	})
}

func (s *Session) rebaseTo(out *raster.Buffer, url string) {
	s.ref = url
	s.rebase(out, s.opts.Loader.Preview(out))
}

// commit snapshots state with prepare under the lock, renders and encodes on
// the exporter, uploads, records a version, then applies onSuccess. Nothing
// in the session changes unless every step succeeds.
func (s *Session) commit(
	ctx context.Context,
	kind string,
	prepare func() (RenderFunc, func(*raster.Buffer, string), error),
) (*CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return nil, ErrCommitInProgress
	}
	render, onSuccess, err := prepare()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.committing = true
	itemID := s.itemID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	log := s.log.WithFields(logrus.Fields{"item": itemID, "kind": kind})
	job := s.exporter.Start(render)
	data, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	out := job.Image()

	url, err := s.upload(ctx, itemID, "", data)
	if err != nil {
		return nil, err
	}

	res := &CommitResult{Kind: kind, URL: url, Width: out.Width, Height: out.Height, Bytes: len(data)}
	if s.opts.Versions != nil {
		v, err := s.opts.Versions.AddVersion(ctx, itemID, url)
		if err != nil {
			log.WithError(err).Warn("add version failed")
			return nil, fmt.Errorf("%w: %w", ErrVersioningFailure, err)
		}
		res.Version = &v
	}

	s.mu.Lock()
	onSuccess(out, url)
	s.commits++
	s.mu.Unlock()

	log.WithField("url", url).Info("commit complete")
	return res, nil
}

// CommitMask exports the highlight strokes as a black/white mask, uploads it
// and, when an InpaintClient is configured, starts an inpainting job for the
// current base with prompt. Only the highlight layer is masked, whichever tool
// is active; it is cleared on success and clone or colorize strokes are kept.
func (s *Session) CommitMask(ctx context.Context, prompt string) (*CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return nil, ErrCommitInProgress
	}
	if s.painter == nil || !s.painter.Marked() {
		s.mu.Unlock()
		return nil, ErrNothingToCommit
	}
	marks := s.painter.Marks()
	itemID, imageRef := s.itemID, s.ref
	s.committing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	job := s.exporter.Start(func() (*raster.Buffer, error) { return paint.ExportMask(marks), nil })
	data, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	mask := job.Image()

	maskURL, err := s.upload(ctx, itemID, "mask-", data)
	if err != nil {
		return nil, err
	}
	res := &CommitResult{Kind: "mask", URL: maskURL, Width: mask.Width, Height: mask.Height, Bytes: len(data)}

	if s.opts.Inpaint != nil {
		jobID, err := s.opts.Inpaint.CreateInpaintJob(ctx, prompt, imageRef, maskURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInpaintFailure, err)
		}
		res.JobID = jobID
	}

	s.mu.Lock()
	if s.painter != nil {
		s.painter.ClearMarks()
	}
	s.commits++
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"item": itemID, "mask": maskURL, "job": res.JobID}).Info("mask committed")
	return res, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (s *Session) upload(ctx context.Context, itemID, prefix string, data []byte) (string, error) {
	if s.opts.Uploader == nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailure, ErrNoUploader)
	}
	dir := unsafeName.ReplaceAllString(itemID, "_")
	if len(dir) > 64 {
		dir = dir[len(dir)-64:]
	}
	name := fmt.Sprintf("%s/%s%s.png", dir, prefix, uuid.NewString())
	url, err := s.opts.Uploader.Upload(ctx, name, data)
	if err != nil {
		s.log.WithError(err).WithField("name", name).Warn("upload failed")
		return "", fmt.Errorf("%w: %w", ErrUploadFailure, err)
	}
	return url, nil
}

// Versions lists the versions of the session's item.
func (s *Session) Versions(ctx context.Context) ([]versions.Version, error) {
	if s.opts.Versions == nil {
		return nil, nil
	}
	s.mu.Lock()
	itemID := s.itemID
	s.mu.Unlock()
	list, err := s.opts.Versions.ListVersions(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVersioningFailure, err)
	}
	return list, nil
}

// RemoveVersion removes one version of the session's item.
func (s *Session) RemoveVersion(ctx context.Context, number int) error {
	if s.opts.Versions == nil {
		return fmt.Errorf("%w: no version store configured", ErrVersioningFailure)
	}
	s.mu.Lock()
	itemID := s.itemID
	s.mu.Unlock()
	if err := s.opts.Versions.RemoveVersion(ctx, itemID, number); err != nil {
		return fmt.Errorf("%w: %w", ErrVersioningFailure, err)
	}
	return nil
}

// NativeSize returns the dimensions of the current base.
func (s *Session) NativeSize() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return image.Pt(s.native.Width, s.native.Height)
}

// Close waits for any background export to finish and drops the session's
// images from the loader cache.
func (s *Session) Close() {
	s.exporter.Wait()
	s.mu.Lock()
	s.evict(s.loaded)
	s.loaded = nil
	s.mu.Unlock()
}

func (s *Session) evict(refs map[string]struct{}) {
	if len(refs) == 0 || s.opts.Loader == nil {
		return
	}
	list := make([]string, 0, len(refs))
	for ref := range refs {
		list = append(list, ref)
	}
	s.opts.Loader.Evict(list...)
}
