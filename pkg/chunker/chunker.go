package chunker

import "fmt"

// Piece is one window of a document's text with its true rune bounds,
// end exclusive.
type Piece struct {
	Text  string
	Start int
	End   int
}

// ConfigError reports an invalid size/overlap combination. Overlap must be
// smaller than size or the window would never advance.
type ConfigError struct {
	Size    int
	Overlap int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunking config: size=%d overlap=%d (need size > 0 and 0 <= overlap < size)", e.Size, e.Overlap)
}

// Chunk splits text into fixed-size windows of at most size runes, each
// overlapping the previous one by exactly overlap runes. The final window
// may be shorter. Windows cover the whole text with no gaps; empty text
// yields no windows.
func Chunk(text string, size, overlap int) ([]Piece, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ConfigError{Size: size, Overlap: overlap}
	}

	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil, nil
	}

	step := size - overlap
	pieces := make([]Piece, 0, (length+step-1)/step)
	for start := 0; start < length; start += step {
		end := start + size
		if end > length {
			end = length
		}
		pieces = append(pieces, Piece{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
	}
	return pieces, nil
}
