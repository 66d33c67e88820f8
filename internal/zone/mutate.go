package zone

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// Mutate replaces the literal of one zone variable and returns the full new
// source. Only the literal's bytes change; indentation, the declaring
// keyword and any trailing comment are preserved.
func Mutate(source, name, newLiteral string) (string, error) {
	z, err := Extract(source)
	if err != nil {
		return "", err
	}

	var target *decl
	for _, d := range scanDeclarations(z.Text) {
		if d.name == name {
			d := d
			target = &d
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrVariableNotFound, name)
	}

	old := ParseLiteral(z.Text[target.litStart:target.litEnd])
	if old.Opaque() {
		return "", fmt.Errorf("%w: %s holds a non-literal expression", domain.ErrParseFailure, name)
	}
	if strings.ContainsAny(newLiteral, "\r\n") {
		return "", fmt.Errorf("%w: replacement for %s spans lines", domain.ErrParseFailure, name)
	}
	if _, comment := SplitComment(newLiteral); comment != "" {
		return "", fmt.Errorf("%w: replacement for %s carries a comment", domain.ErrParseFailure, name)
	}
	nv := ParseLiteral(newLiteral)
	if nv.Opaque() {
		return "", fmt.Errorf("%w: %q is not a literal", domain.ErrParseFailure, newLiteral)
	}

	start := z.Start + target.litStart
	end := z.Start + target.litEnd
	return source[:start] + nv.Raw + source[end:], nil
}

// SameShape reports whether replacing old with proposed keeps the value's
// kind. Int and float are interchangeable.
func SameShape(old, proposed Value) bool {
	if old.Kind.Numeric() && proposed.Kind.Numeric() {
		return true
	}
	return old.Kind == proposed.Kind
}
