package raster

import "fmt"

// DiffResult summarises per-channel differences between two buffers.
type DiffResult struct {
	Identical     bool    `json:"identical"`
	ChangedPixels int     `json:"changed_pixels"`
	MeanDiff      float64 `json:"mean_diff"`
	MaxDiff       int     `json:"max_diff"`
}

// Diff compares two buffers of the same size channel by channel, alpha included.
func Diff(a, b *Buffer) (*DiffResult, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("size mismatch: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}

	res := &DiffResult{}
	total := 0
	for i := 0; i < len(a.Pix); i += 4 {
		changed := false
		for c := 0; c < 4; c++ {
			d := absDiff(a.Pix[i+c], b.Pix[i+c])
			total += d
			if d > res.MaxDiff {
				res.MaxDiff = d
			}
			if d != 0 {
				changed = true
			}
		}
		if changed {
			res.ChangedPixels++
		}
	}
	if len(a.Pix) > 0 {
		res.MeanDiff = float64(total) / float64(len(a.Pix))
	}
	res.Identical = res.ChangedPixels == 0
	return res, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
