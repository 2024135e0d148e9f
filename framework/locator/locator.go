// Package locator finds class names in Go source trees.
//
// A located name is "<package>.<Type>" for the first struct or interface type
// declared in a file, which is the name a reflection.Catalog gives the type
// when it is registered. Located names only become services once the catalog
// knows their type; the builder skips the rest.
package locator

import (
	"context"
	"go/scanner"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/km-arc/go-autowire/framework/errors"
)

// Locator yields class names.
type Locator interface {
	Locate(ctx context.Context) ([]string, error)
}

// Func adapts a function to a Locator.
type Func func(ctx context.Context) ([]string, error)

func (f Func) Locate(ctx context.Context) ([]string, error) { return f(ctx) }

// Names is a fixed list of class names.
type Names []string

func (n Names) Locate(context.Context) ([]string, error) { return append([]string(nil), n...), nil }

// ── File ──────────────────────────────────────────────────────────────────────

// File locates the first type declared in one Go source file.
type File struct {
	Path string
}

func NewFile(path string) *File { return &File{Path: path} }

func (l *File) Locate(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "locate %s", l.Path)
	}
	name, err := ClassName(l.Path, src)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	return []string{name}, nil
}

// ClassName tokenizes src and returns "<package>.<Type>" for its first
// non-generic struct or interface declaration, or "" when there is none.
func ClassName(filename string, src []byte) (string, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(filename, fset.Base(), len(src))

	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) { errs.Add(pos, msg) }, 0)

	scan := func() (token.Token, string) {
		_, tok, lit := s.Scan()
		return tok, lit
	}
	next := func() (token.Token, string) {
		for {
			tok, lit := scan()
			if tok != token.SEMICOLON || lit != "\n" {
				return tok, lit
			}
		}
	}
	qualified := func(pkg, name string) string {
		if pkg == "" {
			return name
		}
		return pkg + "." + name
	}

	var pkg string
	for {
		tok, lit := next()
		if len(errs) > 0 {
			return "", errors.Wrapf(errs.Err(), "locate %s", filename)
		}
		switch tok {
		case token.EOF:
			return "", nil
		case token.PACKAGE:
			if pkg != "" {
				continue
			}
			if tok, lit = next(); tok == token.IDENT {
				pkg = lit
			}
		case token.TYPE:
			tok, lit = next()
			if tok == token.LPAREN {
				name := groupedClass(scan)
				if len(errs) > 0 {
					return "", errors.Wrapf(errs.Err(), "locate %s", filename)
				}
				if name != "" {
					return qualified(pkg, name), nil
				}
				continue
			}
			if tok != token.IDENT {
				continue
			}
			name := lit
			switch tok, _ = next(); tok {
			case token.STRUCT, token.INTERFACE:
				return qualified(pkg, name), nil
			}
		}
	}
}

// groupedClass reads the declarations of a type ( ... ) group, just past its
// opening paren, and returns the first non-generic struct or interface name.
// It stops after the closing paren.
func groupedClass(scan func() (token.Token, string)) string {
	for {
		tok, lit := scan()
		for tok == token.SEMICOLON {
			tok, lit = scan()
		}
		switch tok {
		case token.RPAREN, token.EOF:
			return ""
		case token.IDENT:
			name := lit
			if tok, _ = scan(); tok == token.STRUCT || tok == token.INTERFACE {
				return name
			}
		}

		// skip to the end of this declaration
		depth := 0
	skip:
		for ; ; tok, _ = scan() {
			switch tok {
			case token.EOF:
				return ""
			case token.LPAREN, token.LBRACK, token.LBRACE:
				depth++
			case token.RBRACK, token.RBRACE:
				depth--
			case token.RPAREN:
				if depth == 0 {
					return ""
				}
				depth--
			case token.SEMICOLON:
				if depth == 0 {
					break skip
				}
			}
		}
	}
}

// ── Directory ─────────────────────────────────────────────────────────────────

// Directory locates every Go source file below Root in lexical order. Test
// files and directories the go tool ignores (testdata, _x, .x) are skipped.
type Directory struct {
	Root string
}

func NewDirectory(root string) *Directory { return &Directory{Root: root} }

func (l *Directory) Locate(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.Root && ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceFile(d.Name()) {
			return nil
		}
		names, err := NewFile(path).Locate(ctx)
		if err != nil {
			return err
		}
		out = append(out, names...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "locate in %s", l.Root)
	}
	return out, nil
}

func ignoredDir(name string) bool {
	return name == "testdata" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func sourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}

// ── Glob ──────────────────────────────────────────────────────────────────────

// Glob locates the files matching Include that do not match Exclude.
// Patterns use '/' as separator and support *, **, ?, [a-z] and {a,b}.
// Test files and ignored directories are skipped as in Directory.
type Glob struct {
	Include string
	Exclude string
}

func NewGlob(include, exclude string) *Glob { return &Glob{Include: include, Exclude: exclude} }

func (l *Glob) Locate(ctx context.Context) ([]string, error) {
	include, err := compilePattern(l.Include)
	if err != nil {
		return nil, err
	}
	var exclude *pattern
	if l.Exclude != "" {
		if exclude, err = compilePattern(l.Exclude); err != nil {
			return nil, err
		}
	}

	var out []string
	err = filepath.WalkDir(include.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == include.base && errors.Is(err, fs.ErrNotExist) {
				// nothing to match
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != include.base && ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceFile(d.Name()) || !include.match(path) || (exclude != nil && exclude.match(path)) {
			return nil
		}
		names, err := NewFile(path).Locate(ctx)
		if err != nil {
			return err
		}
		out = append(out, names...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "locate %s", l.Include)
	}
	return out, nil
}

// pattern is a glob split into its literal directory prefix and the rest.
type pattern struct {
	base string
	rest glob.Glob
}

func compilePattern(raw string) (*pattern, error) {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	i := 0
	for i < len(parts)-1 && !strings.ContainsAny(parts[i], `*?[{\`) {
		i++
	}
	base := strings.Join(parts[:i], "/")
	switch {
	case base == "" && i > 0:
		base = "/"
	case base == "":
		base = "."
	}
	g, err := glob.Compile(strings.Join(parts[i:], "/"), '/')
	if err != nil {
		return nil, errors.Wrapf(err, "compile pattern %q", raw)
	}
	return &pattern{base: filepath.FromSlash(base), rest: g}, nil
}

func (p *pattern) match(path string) bool {
	rel, err := filepath.Rel(p.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return p.rest.Match(filepath.ToSlash(rel))
}

// ── Combinators ───────────────────────────────────────────────────────────────

// Chain concatenates the names of several locators in order.
type Chain []Locator

func (c Chain) Locate(ctx context.Context) ([]string, error) {
	var out []string
	for _, l := range c {
		names, err := l.Locate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, names...)
	}
	return out, nil
}
