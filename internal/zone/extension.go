package zone

import (
	"fmt"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// Block describes a grown extension as listed in the registry.
type Block struct {
	Name        string
	Description string
	Category    string
}

var blockNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)

var registryEntryRe = regexp.MustCompile(
	`^\s*\{Name:\s*("(?:[^"\\]|\\.)*"),\s*Description:\s*("(?:[^"\\]|\\.)*"),\s*Category:\s*("(?:[^"\\]|\\.)*")\},?\s*$`)

var bannerStartRe = regexp.MustCompile(`^// --- extension ("(?:[^"\\]|\\.)*") `)

func bannerStart(b Block, now time.Time) string {
	return fmt.Sprintf("// --- extension %q (%s) grown %s ---", b.Name, b.Category, now.UTC().Format(time.RFC3339))
}

func bannerEnd(b Block) string {
	return fmt.Sprintf("// --- end extension %q ---", b.Name)
}

func registryEntry(b Block) string {
	return fmt.Sprintf("{Name: %q, Description: %q, Category: %q},", b.Name, b.Description, b.Category)
}

// AppendBlock inserts code, wrapped in banners, at the insertion anchor of
// the extension sub-zone and adds a matching entry at the registry anchor.
// Both edits land in the same returned source or neither does.
func AppendBlock(source, code string, b Block, now time.Time) (string, error) {
	z, err := Extract(source)
	if err != nil {
		return "", err
	}
	if !blockNameRe.MatchString(b.Name) {
		return "", fmt.Errorf("%w: invalid extension name %q", domain.ErrParseFailure, b.Name)
	}
	if b.Category == "" {
		b.Category = "general"
	}
	code = strings.Trim(code, "\n")
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: empty extension body", domain.ErrParseFailure)
	}
	if containsMarker(code) || containsMarker(b.Description) {
		return "", fmt.Errorf("%w: extension text contains a zone marker", domain.ErrParseFailure)
	}
	for _, existing := range ParseRegistry(source) {
		if existing.Name == b.Name {
			return "", fmt.Errorf("%w: extension %q already registered", domain.ErrParseFailure, b.Name)
		}
	}

	insertion, err := insertionLine(source, z)
	if err != nil {
		return "", err
	}
	registry, err := registryLine(source, z)
	if err != nil {
		return "", err
	}

	body := bannerStart(b, now) + "\n" + code + "\n" + bannerEnd(b) + "\n\n"
	entry := leadingSpace(registry.text) + registryEntry(b) + "\n"

	// Apply the later edit first so the earlier offset stays valid.
	edits := []struct {
		at   int
		text string
	}{{insertion.start, body}, {registry.start, entry}}
	if edits[0].at < edits[1].at {
		edits[0], edits[1] = edits[1], edits[0]
	}
	out := source
	for _, e := range edits {
		out = out[:e.at] + e.text + out[e.at:]
	}
	return out, nil
}

func insertionLine(source string, z Zone) (line, error) {
	lines := splitLines(source)
	var begin, end, anchor []line
	for _, l := range lines {
		if l.start < z.Start || l.start >= z.End {
			continue
		}
		switch strings.TrimSpace(l.text) {
		case ExtensionBeginMarker:
			begin = append(begin, l)
		case ExtensionEndMarker:
			end = append(end, l)
		case InsertionAnchor:
			anchor = append(anchor, l)
		}
	}
	if len(begin) != 1 || len(end) != 1 || len(anchor) != 1 {
		return line{}, fmt.Errorf("%w: extension sub-zone needs one begin, end and anchor line", domain.ErrZoneMalformed)
	}
	if !(begin[0].num < anchor[0].num && anchor[0].num < end[0].num) {
		return line{}, fmt.Errorf("%w: insertion anchor outside extension sub-zone", domain.ErrZoneMalformed)
	}
	return anchor[0], nil
}

func registryLine(source string, z Zone) (line, error) {
	found := markerLines(splitLines(source), RegistryAnchor)
	if len(found) != 1 {
		return line{}, fmt.Errorf("%w: expected one registry anchor, found %d", domain.ErrZoneMalformed, len(found))
	}
	if found[0].start >= z.Start && found[0].start < z.End {
		return line{}, fmt.Errorf("%w: registry anchor inside mutable zone", domain.ErrZoneMalformed)
	}
	return found[0], nil
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// ParseRegistry lists registry entries. Lines inside the mutable zone are
// ignored so grown code can never masquerade as a registration.
func ParseRegistry(source string) []Block {
	z, err := Extract(source)
	hasZone := err == nil

	var blocks []Block
	for _, l := range splitLines(source) {
		if hasZone && l.start >= z.Start && l.start < z.End {
			continue
		}
		m := registryEntryRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		name, err1 := strconv.Unquote(m[1])
		desc, err2 := strconv.Unquote(m[2])
		cat, err3 := strconv.Unquote(m[3])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		blocks = append(blocks, Block{Name: name, Description: desc, Category: cat})
	}
	return blocks
}

// GrownBlocks lists the names of banner-wrapped blocks inside the zone.
func GrownBlocks(source string) ([]string, error) {
	z, err := Extract(source)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, l := range splitLines(z.Text) {
		m := bannerStartRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		if name, err := strconv.Unquote(m[1]); err == nil {
			names = append(names, name)
		}
	}
	return names, nil
}

// ValidateBlock checks that code parses as top-level declarations of pkg.
// Imports are refused since they cannot appear mid-file.
func ValidateBlock(pkg, code string) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "extension.go", "package "+pkg+"\n\n"+code+"\n", parser.AllErrors)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	if len(f.Imports) > 0 {
		return fmt.Errorf("%w: extension may not declare imports", domain.ErrParseFailure)
	}
	if len(f.Decls) == 0 {
		return fmt.Errorf("%w: extension declares nothing", domain.ErrParseFailure)
	}
	return nil
}
