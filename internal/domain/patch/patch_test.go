package patch

import (
	"reflect"
	"strings"
	"testing"
)

func block(search, replace string) string {
	return SearchStart + search + Divider + replace + ReplaceEnd
}

// ============================================================================
// Apply: insertion
// ============================================================================

func TestApply_EmptySearch_PrependsReplacement(t *testing.T) {
	t.Parallel()

	doc := "<html>\n<body></body>\n</html>"
	res := Apply(doc, block("\n", "<!-- a -->\n<!-- b -->"))

	want := "<!-- a -->\n<!-- b -->\n" + doc
	if res.HTML != want {
		t.Fatalf("HTML = %q; want %q", res.HTML, want)
	}
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{1, 2}}) {
		t.Fatalf("UpdatedLines = %v; want [[1 2]]", res.UpdatedLines)
	}
}

func TestApply_WhitespaceOnlySearch_IsInsertion(t *testing.T) {
	t.Parallel()

	res := Apply("body", block("  \t\n  ", "head"))
	if res.HTML != "head\nbody" {
		t.Fatalf("HTML = %q; want %q", res.HTML, "head\nbody")
	}
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{1, 1}}) {
		t.Fatalf("UpdatedLines = %v; want [[1 1]]", res.UpdatedLines)
	}
}

// ============================================================================
// Apply: replacement
// ============================================================================

func TestApply_Replacement_ComputesLineRange(t *testing.T) {
	t.Parallel()

	doc := "<html>\n<head></head>\n<body>\n<h1>Old</h1>\n</body>\n</html>"
	raw := "Changing the title.\n" + block("\n<h1>Old</h1>\n", "\n<h1>New</h1>\n<p>Sub</p>\n")

	res := Apply(doc, raw)

	want := "<html>\n<head></head>\n<body>\n<h1>New</h1>\n<p>Sub</p>\n</body>\n</html>"
	if res.HTML != want {
		t.Fatalf("HTML = %q; want %q", res.HTML, want)
	}
	// search starts at the "\n" that ends line 3; replacement spans 4 lines.
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{3, 6}}) {
		t.Fatalf("UpdatedLines = %v; want [[3 6]]", res.UpdatedLines)
	}
}

func TestApply_Replacement_StartLineMatchesNewlinesBeforeMatch(t *testing.T) {
	t.Parallel()

	doc := "a\nb\nc\nTARGET\nd"
	res := Apply(doc, block("TARGET", "X"))

	idx := strings.Index(doc, "TARGET")
	wantStart := 1 + strings.Count(doc[:idx], "\n")
	if res.UpdatedLines[0].Start() != wantStart || res.UpdatedLines[0].End() != wantStart {
		t.Fatalf("range = %v; want [%d %d]", res.UpdatedLines[0], wantStart, wantStart)
	}
	if res.HTML != "a\nb\nc\nX\nd" {
		t.Fatalf("HTML = %q", res.HTML)
	}
}

func TestApply_Replacement_OnlyFirstOccurrence(t *testing.T) {
	t.Parallel()

	res := Apply("<li>x</li>\n<li>x</li>", block("<li>x</li>", "<li>y</li>"))
	if res.HTML != "<li>y</li>\n<li>x</li>" {
		t.Fatalf("HTML = %q", res.HTML)
	}
}

func TestApply_EmptyReplacement_DeletesAndRecordsOneLine(t *testing.T) {
	t.Parallel()

	res := Apply("keep\ndrop\nkeep", block("drop\n", ""))
	if res.HTML != "keep\nkeep" {
		t.Fatalf("HTML = %q", res.HTML)
	}
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{2, 2}}) {
		t.Fatalf("UpdatedLines = %v; want [[2 2]]", res.UpdatedLines)
	}
}

func TestApply_ReplacementWithDollarSigns_IsLiteral(t *testing.T) {
	t.Parallel()

	res := Apply("price", block("price", "$& $1 $$"))
	if res.HTML != "$& $1 $$" {
		t.Fatalf("HTML = %q; want literal replacement", res.HTML)
	}
}

// ============================================================================
// Apply: skipped and malformed blocks
// ============================================================================

func TestApply_SearchNotFound_LeavesDocumentUnchanged(t *testing.T) {
	t.Parallel()

	doc := "<p>hello</p>"
	res := Apply(doc, block("<p>missing</p>", "<p>x</p>"))
	if res.HTML != doc {
		t.Fatalf("HTML = %q; want unchanged", res.HTML)
	}
	if res.UpdatedLines == nil || len(res.UpdatedLines) != 0 {
		t.Fatalf("UpdatedLines = %#v; want empty non-nil slice", res.UpdatedLines)
	}
}

func TestApply_NoBlocks_ReturnsSourceUnchanged(t *testing.T) {
	t.Parallel()

	res := Apply("doc", "I could not find anything to change.")
	if res.HTML != "doc" || len(res.UpdatedLines) != 0 {
		t.Fatalf("got %+v; want unchanged doc and no ranges", res)
	}
}

func TestApply_SkippedBlockDoesNotStopLaterBlocks(t *testing.T) {
	t.Parallel()

	raw := block("nope", "x") + "\n" + block("b", "B")
	res := Apply("a\nb", raw)
	if res.HTML != "a\nB" {
		t.Fatalf("HTML = %q", res.HTML)
	}
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{2, 2}}) {
		t.Fatalf("UpdatedLines = %v", res.UpdatedLines)
	}
}

func TestApply_MalformedTrailingBlock_KeepsEarlierResults(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing divider":     block("one", "ONE") + SearchStart + "two",
		"missing replace end": block("one", "ONE") + SearchStart + "two" + Divider + "TWO",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res := Apply("one\ntwo", raw)
			if res.HTML != "ONE\ntwo" {
				t.Fatalf("HTML = %q", res.HTML)
			}
			if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{1, 1}}) {
				t.Fatalf("UpdatedLines = %v", res.UpdatedLines)
			}
		})
	}
}

// ============================================================================
// Apply: ordering
// ============================================================================

func TestApply_MultipleBlocks_AppliedInAppearanceOrder(t *testing.T) {
	t.Parallel()

	doc := "l1\nl2\nl3\nl4"
	raw := block("l4", "L4\nL4b") + "\n" + block("l1", "L1")
	res := Apply(doc, raw)

	if res.HTML != "L1\nl2\nl3\nL4\nL4b" {
		t.Fatalf("HTML = %q", res.HTML)
	}
	// ranges follow block order, not document order
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{4, 5}, {1, 1}}) {
		t.Fatalf("UpdatedLines = %v", res.UpdatedLines)
	}
}

func TestApply_LaterBlockSeesEarlierMutation(t *testing.T) {
	t.Parallel()

	raw := block("a", "b") + block("b", "c")
	res := Apply("a", raw)
	if res.HTML != "c" {
		t.Fatalf("HTML = %q; want chained substitution", res.HTML)
	}
	if len(res.UpdatedLines) != 2 {
		t.Fatalf("UpdatedLines = %v; want 2 ranges", res.UpdatedLines)
	}
}

func TestApply_InsertionShiftsLaterRanges(t *testing.T) {
	t.Parallel()

	raw := block("", "<!doctype html>") + block("<b>", "<strong>")
	res := Apply("<p>\n<b>", raw)

	if res.HTML != "<!doctype html>\n<p>\n<strong>" {
		t.Fatalf("HTML = %q", res.HTML)
	}
	if !reflect.DeepEqual(res.UpdatedLines, []LineRange{{1, 1}, {3, 3}}) {
		t.Fatalf("UpdatedLines = %v", res.UpdatedLines)
	}
}

// ============================================================================
// ParseBlocks
// ============================================================================

func TestParseBlocks_GreedyLeftToRight(t *testing.T) {
	t.Parallel()

	// A second SEARCH marker before the divider is not special-cased: it
	// becomes part of the first block's search text.
	raw := SearchStart + "x" + SearchStart + "y" + Divider + "z" + ReplaceEnd
	got := ParseBlocks(raw)
	want := []Block{{Search: "x" + SearchStart + "y", Replace: "z"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBlocks = %#v; want %#v", got, want)
	}
}

func TestParseBlocks_TypicalModelOutput(t *testing.T) {
	t.Parallel()

	raw := "Sure!\n<<<<<<< SEARCH\n<h1>Hi</h1>\n=======\n<h1>Hello</h1>\n>>>>>>> REPLACE\nDone."
	got := ParseBlocks(raw)
	want := []Block{{Search: "\n<h1>Hi</h1>\n", Replace: "\n<h1>Hello</h1>\n"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBlocks = %#v; want %#v", got, want)
	}
}

func TestParseBlocks_None(t *testing.T) {
	t.Parallel()

	if got := ParseBlocks(""); len(got) != 0 {
		t.Fatalf("ParseBlocks(\"\") = %v; want none", got)
	}
}
