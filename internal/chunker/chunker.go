// Package chunker splits long document text into overlapping, boundary-aware
// chunks sized for a single completion call.
package chunker

const (
	DefaultChunkSize = 7000
	DefaultOverlap   = 500
	DefaultMaxChunks = 15
)

// Chunk is a contiguous slice of the input text. Start and End are rune
// offsets; Overlap is how many leading runes repeat the previous chunk's tail.
type Chunk struct {
	Index   int
	Total   int
	Start   int
	End     int
	Overlap int
	Text    string
}

// Chunker splits text into chunks.
type Chunker struct {
	chunkSize int
	overlap   int
	maxChunks int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMaxChunks caps the number of chunks produced.
func WithMaxChunks(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChunks = n
		}
	}
}

// New creates a chunker with the defaults overridden by opts.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		maxChunks: DefaultMaxChunks,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split cuts text into at most maxChunks chunks. Text that fits in one chunk
// (including the empty string) yields exactly one chunk. Text beyond the
// chunk cap is dropped; callers can detect it by comparing the last End with
// the rune length of text.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)

	if n <= c.chunkSize {
		return []Chunk{{Index: 0, Total: 1, Start: 0, End: n, Text: text}}
	}

	var chunks []Chunk
	start, prevEnd := 0, 0
	for start < n && len(chunks) < c.maxChunks {
		overlap := 0
		if len(chunks) > 0 {
			overlap = prevEnd - start
		}

		end := start + c.chunkSize
		if end >= n {
			chunks = append(chunks, Chunk{Start: start, End: n, Overlap: overlap, Text: string(runes[start:n])})
			break
		}

		cut := end
		if b := lastBoundary(runes[start:end]); b >= 0 && b*10 > c.chunkSize*7 {
			cut = start + b + 1
		}
		chunks = append(chunks, Chunk{Start: start, End: cut, Overlap: overlap, Text: string(runes[start:cut])})

		next := cut - c.overlap
		if next <= start {
			// Overlap would swallow the whole chunk; continue without it.
			next = cut
		}
		start, prevEnd = next, cut
	}

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// lastBoundary returns the offset of the last '.' or '\n' in window, or -1.
func lastBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}

// Split chunks text with the default chunker configured by opts.
func Split(text string, opts ...Option) []Chunk {
	return New(opts...).Split(text)
}
