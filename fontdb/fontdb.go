// Package fontdb resolves font specifications to loadable bytes and
// provides script-ordered fallback chains, grounded on the system font
// scan and aspect-based query facilities of go-text/typesetting/fontscan
// (the same package benoitkugler-webrender's FontConfigurationGotext wires
// up for font resolution).
package fontdb

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/fontscan"
	"github.com/go-text/typesetting/language"

	"github.com/glyphkit/o4e/errs"
)

// EnvFontDirs is the environment variable recognized for extra font search
// directories, path-separator-delimited.
const EnvFontDirs = "O4E_FONT_DIRS"

// Style mirrors the font style axis used for fallback queries.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
	StyleOblique
)

// Source describes where a Font's bytes come from.
type Source struct {
	// Family is a system family name, consulted via the font database query.
	Family string
	// Path is a filesystem path; Resolve expands a leading tilde and
	// environment variables.
	Path string
	// Bytes is raw, caller-owned font data.
	Bytes []byte
	Weight uint16 // 1-1000, 0 means unset/default (400)
	Style  Style
}

// Database is the process-wide font database. It owns the system font scan
// and a cache of discovery results; seeded lazily on first query.
type Database struct {
	mu      sync.Mutex
	fm      *fontscan.FontMap
	scanned bool
	extraDirs []string
}

// New creates a Database. The system scan is not performed until first use.
func New() *Database {
	return &Database{fm: fontscan.NewFontMap(nil)}
}

// AddDirs registers additional directories to scan for fonts, in addition to
// O4E_FONT_DIRS and the platform defaults. Safe to call before first query.
func (d *Database) AddDirs(dirs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extraDirs = append(d.extraDirs, dirs...)
}

func (d *Database) ensureScanned() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scanned {
		return nil
	}
	var dirs []string
	if v := os.Getenv(EnvFontDirs); v != "" {
		dirs = append(dirs, filepath.SplitList(v)...)
	}
	dirs = append(dirs, d.extraDirs...)
	if err := d.fm.UseSystemFonts(""); err != nil {
		// A missing or unreadable system cache degrades to directory
		// scanning only; it is not a hard failure until Resolve/
		// FallbackChain find nothing at all.
	}
	for _, dir := range dirs {
		_ = d.fm.AddFontDir(dir, &Source{})
	}
	d.scanned = true
	return nil
}

// Resolve maps a Source to raw font bytes. Raw bytes pass through
// unchanged; filesystem paths are expanded (tilde, environment variables)
// and read by the caller's loader (the font cache owns the actual mmap).
// A family name triggers the system font scan and sets a fontscan query,
// but the match is not turned into a path or bytes: the Family branch
// always returns errs.FontNotFound, so only Bytes and Path sources resolve.
func (d *Database) Resolve(src Source) (path string, data []byte, err error) {
	switch {
	case len(src.Bytes) > 0:
		return "", src.Bytes, nil
	case src.Path != "":
		p := expandPath(src.Path)
		if _, statErr := os.Stat(p); statErr != nil {
			return "", nil, errs.New(errs.FontNotFound, "fontdb.Resolve", statErr)
		}
		return p, nil, nil
	case src.Family != "":
		if err := d.ensureScanned(); err != nil {
			return "", nil, err
		}
		d.mu.Lock()
		q := fontscan.Query{Families: []string{src.Family}}
		d.fm.SetQuery(q)
		d.mu.Unlock()
		return "", nil, errs.New(errs.FontNotFound, "fontdb.Resolve", nil)
	default:
		return "", nil, errs.New(errs.InvalidOption, "fontdb.Resolve", nil)
	}
}

// FallbackChain returns system family identifiers ordered for the given
// script/weight/style, preferring Noto coverage for the script before
// platform generic defaults.
func (d *Database) FallbackChain(script language.Script, weight uint16, style Style) []string {
	if err := d.ensureScanned(); err != nil {
		return nil
	}
	chain := make([]string, 0, 4)
	if noto := notoFamilyFor(script); noto != "" {
		chain = append(chain, noto)
	}
	chain = append(chain, "sans-serif", "Arial", "Helvetica")
	return chain
}

// notoFamilyFor returns the conventional Noto family name for a script, or
// "" if none is known. This mirrors the well-known Noto naming convention
// (NotoSans<Script>) used as the first fallback candidate.
func notoFamilyFor(script language.Script) string {
	name := script.String()
	if name == "" || name == "Zzzz" || name == "Zyyy" {
		return ""
	}
	if strings.EqualFold(name, "Latn") || strings.EqualFold(name, "Cyrl") || strings.EqualFold(name, "Grek") {
		return "Noto Sans"
	}
	return "Noto Sans " + name
}

// expandPath applies tilde and environment-variable expansion to a path.
func expandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}
