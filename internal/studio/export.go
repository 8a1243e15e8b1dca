package studio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// RenderFunc produces the native-resolution output of a commit.
type RenderFunc func() (*raster.Buffer, error)

// Exporter runs native-resolution renders off the caller's goroutine.
type Exporter struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

// NewExporter creates an Exporter. A nil logger uses the logrus standard logger.
func NewExporter(log logrus.FieldLogger) *Exporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Exporter{log: log}
}

// ExportJob is one background render + encode.
type ExportJob struct {
	done  chan struct{}
	image *raster.Buffer
	data  []byte
	err   error
	took  time.Duration
}

// Start runs render and PNG-encodes its result in a new goroutine. The job
// either yields one fully encoded image or an error; there is no partial result.
func (e *Exporter) Start(render RenderFunc) *ExportJob {
	job := &ExportJob{done: make(chan struct{})}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(job.done)
		start := time.Now()
		job.image, job.data, job.err = run(render)
		job.took = time.Since(start)
		if job.err != nil {
			e.log.WithError(job.err).Warn("export failed")
			return
		}
		e.log.WithFields(logrus.Fields{
			"width":  job.image.Width,
			"height": job.image.Height,
			"bytes":  len(job.data),
			"took":   job.took,
		}).Debug("export finished")
	}()
	return job
}

// Wait blocks until every started job has finished.
func (e *Exporter) Wait() {
	e.wg.Wait()
}

func run(render RenderFunc) (img *raster.Buffer, data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, data, err = nil, nil, fmt.Errorf("%w: render panicked: %v", raster.ErrEncodeFailure, r)
		}
	}()
	img, err = render()
	if err != nil {
		return nil, nil, err
	}
	data, err = raster.EncodeBytes(img)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// Wait returns the encoded PNG, or ctx's error if ctx ends first. Abandoning a
// job only discards its result; the render runs to completion.
func (j *ExportJob) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-j.done:
		return j.data, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Image returns the rendered buffer once the job succeeded.
func (j *ExportJob) Image() *raster.Buffer {
	select {
	case <-j.done:
		return j.image
	default:
		return nil
	}
}
