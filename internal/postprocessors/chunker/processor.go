// Package chunker provides sentence-boundary text chunking with overlap.
package chunker

import (
	"regexp"
	"strings"

	"github.com/doclens/doclens/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// carried from one chunk into the next.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits prose into bounded chunks on sentence boundaries.
// Consecutive chunks overlap: the trailing sentences of a chunk, up to the
// configured overlap length, are carried forward into the next chunk so
// context survives the boundary. A single sentence longer than the chunk
// size is never split mid-sentence and becomes its own over-long chunk.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// sentenceEnd matches terminal punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// splitSentences splits text into sentences, keeping the terminal
// punctuation with each sentence.
func splitSentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")

	var sentences []string
	for _, s := range strings.Split(marked, "\x00") {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Split chunks the text. Output chunks are trimmed, non-empty, and at most
// chunkSize plus one sentence long, ignoring the carried overlap prefix.
func (p *Processor) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	length := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, " ")))

		// Carry trailing sentences up to the overlap length into the
		// next chunk.
		var carry []string
		carryLen := 0
		for i := len(current) - 1; i >= 0 && carryLen < p.overlap; i-- {
			carry = append([]string{current[i]}, carry...)
			carryLen += len(current[i]) + 1
		}
		current = carry
		length = carryLen
	}

	for _, sentence := range sentences {
		if length > 0 && length+len(sentence)+1 > p.chunkSize {
			flush()
		}
		current = append(current, sentence)
		length += len(sentence) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(current, " ")))
	}

	return chunks
}
