package pipeline

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Harshitk-cp/lumen/internal/zone"
	"golang.org/x/tools/go/packages"
)

func checkSyntax(filename string, src []byte) (*ast.File, []string) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
	if err == nil {
		return f, nil
	}
	var list scanner.ErrorList
	if errors.As(err, &list) {
		diags := make([]string, 0, len(list))
		for _, e := range list {
			diags = append(diags, fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg))
		}
		return nil, diags
	}
	return nil, []string{err.Error()}
}

// Policy screens a parsed candidate before the expensive load check.
type Policy struct {
	DeniedImports []string
}

// DefaultPolicy denies process spawning, raw memory, syscalls, plugin
// loading, networking and cgo.
func DefaultPolicy() Policy {
	return Policy{DeniedImports: []string{
		"C",
		"net",
		"net/http",
		"os/exec",
		"plugin",
		"runtime/debug",
		"syscall",
		"unsafe",
	}}
}

// Check returns one diagnostic per violation. wantPkg, when set, pins the
// package clause.
func (p Policy) Check(f *ast.File, source, wantPkg string) []string {
	var diags []string

	denied := make(map[string]bool, len(p.DeniedImports))
	for _, imp := range p.DeniedImports {
		denied[imp] = true
	}
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			diags = append(diags, fmt.Sprintf("malformed import %s", spec.Path.Value))
			continue
		}
		if denied[path] {
			diags = append(diags, fmt.Sprintf("import %q is not allowed", path))
		}
	}

	if wantPkg != "" && f.Name.Name != wantPkg {
		diags = append(diags, fmt.Sprintf("package clause changed from %s to %s", wantPkg, f.Name.Name))
	}

	if n := zone.Count(source); n != 1 {
		diags = append(diags, fmt.Sprintf("candidate must keep exactly one mutable zone, found %d", n))
	} else if _, err := zone.Extract(source); err != nil {
		diags = append(diags, err.Error())
	}
	return diags
}

func (p *Pipeline) expectedPackage() string {
	src, err := os.ReadFile(p.livePath)
	if err != nil {
		return ""
	}
	f, err := parser.ParseFile(token.NewFileSet(), p.livePath, src, parser.PackageClauseOnly)
	if err != nil {
		return ""
	}
	return f.Name.Name
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedModule

// LoadChecker type-checks the packages matched by Patterns with the
// candidate overlaid on the live file. Nothing is built or executed.
// Dir defaults to the live file's directory and Patterns to ".".
type LoadChecker struct {
	Dir      string
	Patterns []string
	Env      []string
}

func (lc *LoadChecker) Load(ctx context.Context, livePath string, candidate []byte) ([]string, error) {
	dir := lc.Dir
	if dir == "" {
		dir = filepath.Dir(livePath)
	}
	patterns := lc.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	env := append(os.Environ(), "GOWORK=off")
	env = append(env, lc.Env...)

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Env:     env,
		Overlay: map[string][]byte{livePath: candidate},
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("load packages: no packages matched %v", patterns)
	}

	var diags []string
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			diags = append(diags, e.Error())
		}
		if pkg.Module != nil && pkg.Module.Error != nil {
			diags = append(diags, pkg.Module.Error.Err)
		}
	})
	return diags, nil
}
