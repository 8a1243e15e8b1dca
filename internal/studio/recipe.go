package studio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/image-studio-mcp/internal/adjust"
	"github.com/ironsheep/image-studio-mcp/internal/filters"
	"github.com/ironsheep/image-studio-mcp/internal/raster"
)

// Recipe is the resolution-independent description of an adjust-mode edit.
type Recipe struct {
	Adjustments adjust.Settings `json:"adjustments"`
	Filters     []filters.Entry `json:"filters,omitempty"`
}

// NeutralRecipe changes nothing.
func NeutralRecipe() Recipe {
	return Recipe{Adjustments: adjust.Neutral()}
}

// IsNeutral reports whether Render would return an identical buffer.
func (r Recipe) IsNeutral() bool {
	if !r.Adjustments.IsNeutral() {
		return false
	}
	for _, f := range r.Filters {
		if f.Amount > 0 {
			return false
		}
	}
	return true
}

// Render applies the adjustments and then the filter stack.
func (r Recipe) Render(src raster.PixelBuffer) *raster.Buffer {
	return filters.Apply(adjust.Apply(src, r.Adjustments), r.Filters)
}

// ParseRecipe decodes a JSON recipe. Missing adjustment fields default to
// neutral and unknown filter kinds are rejected.
func ParseRecipe(data []byte) (Recipe, error) {
	r := NeutralRecipe()
	if err := json.Unmarshal(data, &r); err != nil {
		return Recipe{}, fmt.Errorf("invalid recipe: %w", err)
	}
	if err := filters.Validate(r.Filters); err != nil {
		return Recipe{}, fmt.Errorf("invalid recipe: %w", err)
	}
	r.Adjustments = r.Adjustments.Normalize()
	return r, nil
}

// LoadRecipe reads a JSON recipe file.
func LoadRecipe(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to read recipe: %w", err)
	}
	return ParseRecipe(data)
}
