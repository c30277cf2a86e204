package chunker

import (
	"fmt"

	"docquery/internal/domain"
)

// WindowChunker splits text into fixed-size overlapping windows. Window i
// starts at offset i*(size-overlap) and spans up to size runes; the final
// window may be shorter. Offsets are measured in runes so multi-byte text
// chunks the same way regardless of encoding.
type WindowChunker struct {
	size    int
	overlap int
}

// New validates the window parameters and returns a chunker. The overlap
// must be non-negative and strictly smaller than the size.
func New(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidConfig, overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Split returns the ordered windows of text. Empty text yields no windows.
// The output is deterministic for identical inputs.
func (c *WindowChunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// Size returns the configured window size in runes.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the configured window overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }
