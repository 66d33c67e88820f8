// Package zone locates and rewrites the marked, self-modifiable region of
// the agent's own Go source. Every function here is pure: source text in,
// source text out.
package zone

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// Markers are matched against whole lines with surrounding whitespace trimmed.
const (
	BeginMarker          = "// >>> MUTABLE ZONE BEGIN >>>"
	EndMarker            = "// <<< MUTABLE ZONE END <<<"
	ExtensionBeginMarker = "// >>> EXTENSION ZONE BEGIN >>>"
	ExtensionEndMarker   = "// <<< EXTENSION ZONE END <<<"
	InsertionAnchor      = "// ~~~ INSERTION ANCHOR ~~~"
	RegistryAnchor       = "// ~~~ REGISTRY ANCHOR ~~~"
)

var allMarkers = []string{
	BeginMarker, EndMarker, ExtensionBeginMarker, ExtensionEndMarker, InsertionAnchor, RegistryAnchor,
}

// Zone is the span strictly between the begin and end marker lines.
// Start is the offset just past the begin line's newline, End is the offset
// of the first byte of the end marker line.
type Zone struct {
	Start     int
	End       int
	Text      string
	BeginLine int
	EndLine   int
}

// Reinsert splices text back into source in place of the zone body.
// Reinserting z.Text reproduces source exactly.
func (z Zone) Reinsert(source, text string) string {
	return source[:z.Start] + text + source[z.End:]
}

// line is one source line without its terminator.
type line struct {
	start int // offset of the first byte
	end   int // offset of the newline, or len(source)
	num   int // 1-based
	text  string
}

func splitLines(source string) []line {
	var lines []line
	start, num := 0, 1
	for start <= len(source) {
		idx := strings.IndexByte(source[start:], '\n')
		if idx < 0 {
			if start < len(source) {
				lines = append(lines, line{start: start, end: len(source), num: num, text: source[start:]})
			}
			break
		}
		end := start + idx
		lines = append(lines, line{start: start, end: end, num: num, text: source[start:end]})
		start = end + 1
		num++
	}
	return lines
}

func markerLines(lines []line, marker string) []line {
	var found []line
	for _, l := range lines {
		if strings.TrimSpace(l.text) == marker {
			found = append(found, l)
		}
	}
	return found
}

// Extract finds the mutable zone. A missing marker is ErrZoneNotFound, never
// an empty zone.
func Extract(source string) (Zone, error) {
	lines := splitLines(source)
	begins := markerLines(lines, BeginMarker)
	ends := markerLines(lines, EndMarker)

	if len(begins) == 0 || len(ends) == 0 {
		return Zone{}, fmt.Errorf("%w: begin markers=%d end markers=%d", domain.ErrZoneNotFound, len(begins), len(ends))
	}
	if len(begins) > 1 || len(ends) > 1 {
		return Zone{}, fmt.Errorf("%w: expected exactly one zone, found %d begin and %d end markers",
			domain.ErrZoneMalformed, len(begins), len(ends))
	}

	b, e := begins[0], ends[0]
	if e.num <= b.num {
		return Zone{}, fmt.Errorf("%w: end marker on line %d precedes begin marker on line %d",
			domain.ErrZoneMalformed, e.num, b.num)
	}

	start := b.end + 1
	end := e.start
	return Zone{
		Start:     start,
		End:       end,
		Text:      source[start:end],
		BeginLine: b.num,
		EndLine:   e.num,
	}, nil
}

// Count reports how many begin markers the source holds. The commit
// pipeline uses it to refuse candidates that drop or duplicate the zone.
func Count(source string) int {
	return len(markerLines(splitLines(source), BeginMarker))
}

func containsMarker(text string) bool {
	for _, m := range allMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
