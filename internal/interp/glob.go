package interp

import (
	"regexp"
	"strings"
	"sync"
)

// CompiledGlob is a once-compiled glob pattern (`*` and `?` wildcards,
// matched against the whole string). A query's glob pattern is compiled
// exactly once, on the first Match, and the interpreter reuses the same
// CompiledGlob
// across every row, instead of re-translating the pattern per row.
type CompiledGlob struct {
	re   *regexp.Regexp
	once sync.Once
	src  string
}

// NewCompiledGlob returns a CompiledGlob for pattern. Compilation is
// deferred to the first Match call so a glob built but never evaluated
// (e.g. a guaranteed-empty query) never pays for it.
func NewCompiledGlob(pattern string) *CompiledGlob {
	return &CompiledGlob{src: pattern}
}

func (g *CompiledGlob) compile() {
	g.once.Do(func() {
		g.re = regexp.MustCompile("^" + globToRegexp(g.src) + "$")
	})
}

// Match reports whether s matches the glob pattern.
func (g *CompiledGlob) Match(s string) bool {
	g.compile()
	return g.re.MatchString(s)
}

// globToRegexp translates a shell-style glob (`*`, `?`, with no
// bracket-expression support) into an anchored regexp fragment.
func globToRegexp(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
