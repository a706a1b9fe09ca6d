package review

import "strings"

const (
	// SelectionPlaceholder is replaced by the text selected before insertion.
	SelectionPlaceholder = "${sel}"
	// CursorMarker sets the caret position after insertion and is removed.
	CursorMarker = "${cursor}"
)

// InsertTemplate splices template into value over the selection
// [selStart, selEnd) and returns the new value and caret position. Offsets
// count runes. Without a cursor marker the caret lands after the inserted text.
func InsertTemplate(value string, selStart, selEnd int, template string) (string, int) {
	runes := []rune(value)
	selStart = clamp(selStart, 0, len(runes))
	selEnd = clamp(selEnd, 0, len(runes))
	if selStart > selEnd {
		selStart, selEnd = selEnd, selStart
	}
	selected := string(runes[selStart:selEnd])

	before, after, hasCursor := strings.Cut(template, CursorMarker)
	before = strings.ReplaceAll(before, SelectionPlaceholder, selected)
	after = strings.ReplaceAll(strings.ReplaceAll(after, CursorMarker, ""), SelectionPlaceholder, selected)

	inserted := before + after
	caret := selStart + len([]rune(inserted))
	if hasCursor {
		caret = selStart + len([]rune(before))
	}

	out := string(runes[:selStart]) + inserted + string(runes[selEnd:])
	return out, caret
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
