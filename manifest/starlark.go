package manifest

import (
	"fmt"
	"slices"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-negotiate/internal/buildutil"
)

var (
	negotiationAttrs = []string{"polyfills", "values"}
	sourceAttrs      = []string{"name", "version"}
)

// ParseStarlark parses a Starlark declaration file.
//
// Syntax errors are returned as *ParseError. Unknown calls, unknown or
// mistyped attributes, and invalid sources are collected into a single
// *ValidationErrors.
func ParseStarlark(filename string, data []byte) (*Manifest, error) {
	f, err := build.ParseDefault(filename, data)
	if err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		}
	}

	p := &starlarkParser{
		filename: filename,
		manifest: &Manifest{Path: filename},
	}
	for _, stmt := range f.Stmt {
		p.statement(stmt)
	}

	p.manifest.validate(&p.errs)
	if err := p.errs.ToError(); err != nil {
		return nil, err
	}
	return p.manifest, nil
}

type starlarkParser struct {
	filename       string
	manifest       *Manifest
	errs           ValidationErrors
	sawNegotiation bool
}

func (p *starlarkParser) statement(stmt build.Expr) {
	if _, ok := stmt.(*build.CommentBlock); ok {
		return
	}

	pos := p.position(stmt)
	call, ok := stmt.(*build.CallExpr)
	if !ok {
		p.errs.Add(pos, "", fmt.Sprintf("unexpected %s statement, only negotiation() and source() calls are allowed", describe(stmt)))
		return
	}

	switch name := buildutil.FuncName(call); name {
	case "negotiation":
		p.negotiation(call, pos)
	case "source":
		p.source(call, pos)
	default:
		p.errs.Add(pos, "", fmt.Sprintf("unknown declaration %q", name))
	}
}

func (p *starlarkParser) negotiation(call *build.CallExpr, pos Position) {
	if p.sawNegotiation {
		p.errs.Add(pos, "negotiation", "declared more than once")
		return
	}
	p.sawNegotiation = true
	p.checkAttrs(call, pos, "negotiation", negotiationAttrs)

	if _, set := buildutil.Attr(call, "polyfills"); set && !buildutil.IsNone(call, "polyfills") {
		v, ok := buildutil.Bool(call, "polyfills")
		if !ok {
			p.errs.Add(pos, "negotiation.polyfills", "must be True, False or None")
		} else {
			p.manifest.Polyfills = &v
		}
	}

	if expr, set := buildutil.Attr(call, "values"); set {
		v, ok := buildutil.Value(expr)
		values, isMap := v.(map[string]any)
		if !ok || !isMap {
			p.errs.Add(pos, "negotiation.values", "must be a dict literal with string keys")
		} else {
			p.manifest.Values = values
		}
	}
}

func (p *starlarkParser) source(call *build.CallExpr, pos Position) {
	field := fmt.Sprintf("sources[%d]", len(p.manifest.Sources))
	p.checkAttrs(call, pos, field, sourceAttrs)

	src := Source{Pos: pos}
	src.Name = p.stringAttr(call, pos, field, "name")
	if src.Name == "" {
		// source("local", version = "1.0.0")
		src.Name, _ = buildutil.String(call, "")
	}
	src.Version = p.stringAttr(call, pos, field, "version")

	p.manifest.Sources = append(p.manifest.Sources, src)
}

func (p *starlarkParser) stringAttr(call *build.CallExpr, pos Position, field, name string) string {
	if _, set := buildutil.Attr(call, name); !set {
		return ""
	}
	s, ok := buildutil.String(call, name)
	if !ok {
		p.errs.Add(pos, field+"."+name, "must be a string")
	}
	return s
}

func (p *starlarkParser) checkAttrs(call *build.CallExpr, pos Position, field string, allowed []string) {
	for _, name := range buildutil.AttrNames(call) {
		if !slices.Contains(allowed, name) {
			p.errs.Add(pos, field+"."+name, "unknown attribute")
		}
	}
}

func (p *starlarkParser) position(expr build.Expr) Position {
	line, col := buildutil.Position(expr)
	return Position{Filename: p.filename, Line: line, Column: col}
}

func describe(expr build.Expr) string {
	switch expr.(type) {
	case *build.AssignExpr:
		return "assignment"
	case *build.LoadStmt:
		return "load"
	case *build.DefStmt:
		return "def"
	case *build.IfStmt:
		return "if"
	case *build.ForStmt:
		return "for"
	}
	return "expression"
}
