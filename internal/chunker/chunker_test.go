package chunker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct joins chunks dropping each chunk's declared overlap.
func reconstruct(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(string([]rune(c.Text)[c.Overlap:]))
	}
	return sb.String()
}

// sentences builds text of n runes made of sentences of the given length,
// each terminated by a period.
func sentences(n, length int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if (i+1)%length == 0 {
			sb.WriteByte('.')
		} else {
			sb.WriteByte('a')
		}
	}
	return sb.String()
}

// ========== New ==========

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
	assert.Equal(t, DefaultMaxChunks, c.maxChunks)
}

func TestNew_OverlapClamped(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 25, c.overlap)
}

func TestNew_IgnoresInvalidOptions(t *testing.T) {
	c := New(WithChunkSize(0), WithOverlap(-1), WithMaxChunks(-3))
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
	assert.Equal(t, DefaultMaxChunks, c.maxChunks)
}

// ========== Single chunk ==========

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Equal(t, 0, chunks[0].Overlap)
}

func TestSplit_ExactlyChunkSize(t *testing.T) {
	chunks := Split(strings.Repeat("y", 7000))
	assert.Len(t, chunks, 1)
}

func TestSplit_EmptyText(t *testing.T) {
	chunks := Split("")
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
}

// ========== Boundaries ==========

func TestSplit_CutsAtSentenceBoundary(t *testing.T) {
	// Period at offset 80 of a 100-rune window: 80 > 70, so cut after it.
	text := strings.Repeat("a", 80) + "." + strings.Repeat("b", 100)
	chunks := Split(text, WithChunkSize(100), WithOverlap(10))

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "."))
	assert.Equal(t, 81, chunks[0].End)
	assert.Equal(t, 71, chunks[1].Start)
	assert.Equal(t, 10, chunks[1].Overlap)
}

func TestSplit_CutsAtNewline(t *testing.T) {
	text := strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 100)
	chunks := Split(text, WithChunkSize(100), WithOverlap(0))
	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n"))
}

func TestSplit_EarlyBoundaryIgnored(t *testing.T) {
	// Period at offset 50 is below the 70% threshold: raw cut at the window edge.
	text := strings.Repeat("a", 50) + "." + strings.Repeat("b", 200)
	chunks := Split(text, WithChunkSize(100), WithOverlap(0))
	assert.Equal(t, 100, chunks[0].End)
}

func TestSplit_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("æøå", 50) // 150 runes, 300 bytes
	chunks := Split(text, WithChunkSize(100), WithOverlap(10))
	require.Len(t, chunks, 2)
	assert.Len(t, []rune(chunks[0].Text), 100)
	assert.Equal(t, text, reconstruct(chunks))
}

// ========== Bounds ==========

func TestSplit_MaxChunksCap(t *testing.T) {
	text := strings.Repeat("z", 10000)
	chunks := Split(text, WithChunkSize(100), WithOverlap(10), WithMaxChunks(5))
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 5, c.Total)
	}
	assert.Less(t, chunks[4].End, 10000, "text beyond the cap is dropped")
}

func TestSplit_SentenceCutsGiveFourChunks(t *testing.T) {
	// 20,000 chars in 1500-char sentences: cuts land at 6000, 12000, 18000.
	text := sentences(20000, 1500)
	chunks := Split(text)

	require.Len(t, chunks, 4)
	assert.Equal(t, []int{0, 5500, 11500, 17500}, []int{chunks[0].Start, chunks[1].Start, chunks[2].Start, chunks[3].Start})
	assert.Equal(t, 20000, chunks[3].End)
	assert.Equal(t, text, reconstruct(chunks))
}

func TestSplit_RawWindowArithmetic(t *testing.T) {
	// Without boundaries the window advances by chunkSize - overlap.
	chunks := Split(strings.Repeat("q", 20001))
	require.Len(t, chunks, 4)
	assert.Equal(t, 6500, chunks[1].Start)
	assert.Equal(t, 13000, chunks[2].Start)
	assert.Equal(t, 19500, chunks[3].Start)
}

// ========== Progress ==========

func TestSplit_ProgressWithLargeOverlap(t *testing.T) {
	// Boundary cut at 75 with overlap 90 would move start backwards.
	unit := strings.Repeat("a", 74) + "."
	text := strings.Repeat(unit, 40)
	chunks := Split(text, WithChunkSize(100), WithOverlap(90), WithMaxChunks(1000))

	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].Start, chunks[i-1].Start, "chunk %d did not advance", i)
	}
	assert.Equal(t, len([]rune(text)), chunks[len(chunks)-1].End)
	assert.Equal(t, text, reconstruct(chunks))
}

// ========== Coverage property ==========

func TestSplit_CoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abc def.\nøæå")

	for iter := 0; iter < 300; iter++ {
		n := rng.Intn(3000) + 1
		buf := make([]rune, n)
		for i := range buf {
			buf[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(buf)

		size := rng.Intn(400) + 1
		overlap := rng.Intn(size)
		chunks := Split(text, WithChunkSize(size), WithOverlap(overlap), WithMaxChunks(100000))

		require.NotEmpty(t, chunks)
		assert.Equal(t, text, reconstruct(chunks), "iter %d size %d overlap %d", iter, size, overlap)
		for _, c := range chunks {
			assert.LessOrEqual(t, c.End-c.Start, size)
			assert.Equal(t, len(chunks), c.Total)
		}
	}
}
