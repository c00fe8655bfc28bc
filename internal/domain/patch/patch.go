// Package patch applies SEARCH/REPLACE diff blocks emitted by a model to an HTML document.
// The document is treated as raw text: no HTML parsing, exact substring matching only.
package patch

import "strings"

// Diff-block markers. Matched verbatim and case-sensitive.
const (
	SearchStart = "<<<<<<< SEARCH"
	Divider     = "======="
	ReplaceEnd  = ">>>>>>> REPLACE"
)

// Block is a single search/replace unit parsed from model output.
type Block struct {
	Search  string
	Replace string
}

// Insertion reports whether the block prepends Replace to the document
// instead of substituting an existing fragment.
func (b Block) Insertion() bool {
	return strings.TrimSpace(b.Search) == ""
}

// LineRange is a 1-indexed, inclusive [start, end] pair of document lines.
// It marshals to JSON as a two-element array.
type LineRange [2]int

// Start returns the first affected line.
func (r LineRange) Start() int { return r[0] }

// End returns the last affected line.
func (r LineRange) End() int { return r[1] }

// Result is the outcome of applying a model response to a document.
type Result struct {
	HTML string `json:"html"`
	// UpdatedLines holds one range per applied block, in the order blocks
	// appeared in the model output (not document order).
	UpdatedLines []LineRange `json:"updatedLines"`
}

// ParseBlocks scans raw left to right and returns every complete block.
// Scanning halts at the first block missing its divider or replace-end marker;
// blocks before it are still returned.
func ParseBlocks(raw string) []Block {
	var blocks []Block
	pos := 0
	for {
		block, next, ok := nextBlock(raw, pos)
		if !ok {
			return blocks
		}
		blocks = append(blocks, block)
		pos = next
	}
}

// nextBlock locates the block starting at or after pos and returns it together
// with the cursor just past its replace-end marker.
func nextBlock(raw string, pos int) (Block, int, bool) {
	start := indexFrom(raw, SearchStart, pos)
	if start < 0 {
		return Block{}, 0, false
	}
	divider := indexFrom(raw, Divider, start)
	if divider < 0 {
		return Block{}, 0, false
	}
	end := indexFrom(raw, ReplaceEnd, divider)
	if end < 0 {
		return Block{}, 0, false
	}

	return Block{
		Search:  raw[start+len(SearchStart) : divider],
		Replace: raw[divider+len(Divider) : end],
	}, end + len(ReplaceEnd), true
}

// Apply parses the blocks in raw and applies them in order to source, each
// against the document produced by the blocks before it. Blocks whose search
// text is not found are skipped without error.
func Apply(source, raw string) Result {
	doc := source
	updated := []LineRange{}

	for _, b := range ParseBlocks(raw) {
		var (
			r       LineRange
			applied bool
		)
		doc, r, applied = applyBlock(doc, b)
		if applied {
			updated = append(updated, r)
		}
	}

	return Result{HTML: doc, UpdatedLines: updated}
}

// applyBlock applies one block to doc. The returned bool is false when the
// search text does not occur in doc, in which case doc is returned unchanged.
func applyBlock(doc string, b Block) (string, LineRange, bool) {
	if b.Insertion() {
		return b.Replace + "\n" + doc, LineRange{1, lineCount(b.Replace)}, true
	}

	p := strings.Index(doc, b.Search)
	if p < 0 {
		return doc, LineRange{}, false
	}

	startLine := strings.Count(doc[:p], "\n") + 1
	endLine := startLine + lineCount(b.Replace) - 1
	return doc[:p] + b.Replace + doc[p+len(b.Search):], LineRange{startLine, endLine}, true
}

// lineCount returns the number of lines in s when split on "\n".
// An empty string counts as one line.
func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func indexFrom(s, substr string, from int) int {
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}
