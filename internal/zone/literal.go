package zone

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// Kind classifies a literal found in the zone.
type Kind int

const (
	KindOpaque Kind = iota
	KindInt
	KindFloat
	KindString
	KindRune
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindRune:
		return "rune"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "opaque"
	}
}

// Numeric reports whether values of this kind carry Number.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a decoded literal. Raw always holds the trimmed source text, so an
// opaque value still round-trips without interpretation.
type Value struct {
	Kind   Kind
	Raw    string
	Number float64
	Text   string
	Bool   bool
	Items  []Value
}

func (v Value) Opaque() bool {
	return v.Kind == KindOpaque
}

// ParseLiteral decodes raw as a Go literal expression. It never fails: any
// expression that is not a plain literal (calls, identifiers, operators) is
// returned as KindOpaque.
func ParseLiteral(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{Kind: KindOpaque}
	}
	expr, err := parser.ParseExpr(raw)
	if err != nil {
		return Value{Kind: KindOpaque, Raw: raw}
	}
	v := decode(expr)
	v.Raw = raw
	return v
}

func decode(expr ast.Expr) Value {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return decode(e.X)
	case *ast.BasicLit:
		return decodeBasic(e)
	case *ast.UnaryExpr:
		if e.Op != token.SUB && e.Op != token.ADD {
			return Value{Kind: KindOpaque}
		}
		lit, ok := e.X.(*ast.BasicLit)
		if !ok || (lit.Kind != token.INT && lit.Kind != token.FLOAT) {
			return Value{Kind: KindOpaque}
		}
		v := decodeBasic(lit)
		if e.Op == token.SUB && !v.Opaque() {
			v.Number = -v.Number
		}
		return v
	case *ast.Ident:
		switch e.Name {
		case "true":
			return Value{Kind: KindBool, Bool: true}
		case "false":
			return Value{Kind: KindBool, Bool: false}
		}
	case *ast.CompositeLit:
		arr, ok := e.Type.(*ast.ArrayType)
		if !ok {
			return Value{Kind: KindOpaque}
		}
		if _, ok := arr.Elt.(*ast.Ident); !ok {
			return Value{Kind: KindOpaque}
		}
		items := make([]Value, 0, len(e.Elts))
		for _, elt := range e.Elts {
			item := decode(elt)
			if item.Opaque() || item.Kind == KindList {
				return Value{Kind: KindOpaque}
			}
			items = append(items, item)
		}
		return Value{Kind: KindList, Items: items}
	}
	return Value{Kind: KindOpaque}
}

func decodeBasic(lit *ast.BasicLit) Value {
	switch lit.Kind {
	case token.INT, token.FLOAT:
		c := constant.MakeFromLiteral(lit.Value, lit.Kind, 0)
		if c.Kind() == constant.Unknown {
			return Value{Kind: KindOpaque}
		}
		f, _ := constant.Float64Val(c)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{Kind: KindOpaque}
		}
		kind := KindFloat
		if lit.Kind == token.INT {
			kind = KindInt
		}
		return Value{Kind: kind, Number: f}
	case token.STRING:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return Value{Kind: KindOpaque}
		}
		return Value{Kind: KindString, Text: s}
	case token.CHAR:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return Value{Kind: KindOpaque}
		}
		return Value{Kind: KindRune, Text: s}
	}
	return Value{Kind: KindOpaque}
}

// FormatNumber renders n in the literal form of kind. Floats always keep a
// decimal point so an untyped float constant never turns into an int. Ints
// are rounded and must fit in int64.
func FormatNumber(n float64, kind Kind) (string, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", fmt.Errorf("%w: %v is not a finite number", domain.ErrParseFailure, n)
	}
	if kind == KindInt {
		r := math.Round(n)
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if r < math.MinInt64 || r >= math.MaxInt64 {
			return "", fmt.Errorf("%w: %v is out of int64 range", domain.ErrParseFailure, n)
		}
		return strconv.FormatInt(int64(r), 10), nil
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}
