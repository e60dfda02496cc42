package fontdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-text/typesetting/language"

	"github.com/glyphkit/o4e/errs"
)

func TestResolveRawBytesPassThrough(t *testing.T) {
	d := New()
	want := []byte{1, 2, 3, 4}
	path, data, err := d.Resolve(Source{Bytes: want})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for raw bytes", path)
	}
	if string(data) != string(want) {
		t.Errorf("data = %v, want %v", data, want)
	}
}

func TestResolvePathReturnsPathWithoutReading(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(file, []byte("fake font bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := New()
	path, data, err := d.Resolve(Source{Path: file})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != file {
		t.Errorf("path = %q, want %q", path, file)
	}
	if data != nil {
		t.Errorf("data = %v, want nil (caller loads path-based fonts separately)", data)
	}
}

func TestResolveMissingPathFails(t *testing.T) {
	d := New()
	_, _, err := d.Resolve(Source{Path: "/no/such/font-xyzzy.ttf"})
	if !errors.Is(err, errs.ErrFontNotFound) {
		t.Fatalf("err = %v, want errs.ErrFontNotFound", err)
	}
}

func TestResolveEmptySourceIsInvalidOption(t *testing.T) {
	d := New()
	_, _, err := d.Resolve(Source{})
	if !errors.Is(err, errs.ErrInvalidOption) {
		t.Fatalf("err = %v, want errs.ErrInvalidOption", err)
	}
}

func TestFallbackChainPrefersNotoForScript(t *testing.T) {
	d := New()
	chain := d.FallbackChain(mustParseScript(t, "Deva"), 400, StyleNormal)
	if len(chain) == 0 || chain[0] != "Noto Sans Deva" {
		t.Fatalf("chain[0] = %v, want %q", chain, "Noto Sans Deva")
	}
}

func TestFallbackChainEndsWithGenericDefaults(t *testing.T) {
	d := New()
	chain := d.FallbackChain(mustParseScript(t, "Latn"), 400, StyleNormal)
	if len(chain) < 3 {
		t.Fatalf("got %d entries, want at least 3", len(chain))
	}
	last := chain[len(chain)-1]
	if last != "Helvetica" {
		t.Errorf("last fallback = %q, want %q", last, "Helvetica")
	}
}

func TestNotoFamilyForCommonAndUnknownScriptsAreEmpty(t *testing.T) {
	if got := notoFamilyFor(mustParseScript(t, "Zyyy")); got != "" {
		t.Errorf("notoFamilyFor(Common) = %q, want empty", got)
	}
	if got := notoFamilyFor(mustParseScript(t, "Zzzz")); got != "" {
		t.Errorf("notoFamilyFor(Unknown) = %q, want empty", got)
	}
}

func TestNotoFamilyForLatinIsNotoSansWithoutScriptSuffix(t *testing.T) {
	if got := notoFamilyFor(mustParseScript(t, "Latn")); got != "Noto Sans" {
		t.Errorf("notoFamilyFor(Latn) = %q, want %q", got, "Noto Sans")
	}
}

func TestExpandPathExpandsEnvVars(t *testing.T) {
	os.Setenv("O4E_TEST_FONT_DIR", "/opt/fonts")
	defer os.Unsetenv("O4E_TEST_FONT_DIR")

	got := expandPath("$O4E_TEST_FONT_DIR/regular.ttf")
	want := "/opt/fonts/regular.ttf"
	if got != want {
		t.Errorf("expandPath = %q, want %q", got, want)
	}
}

func TestAddDirsIsSafeBeforeFirstQuery(t *testing.T) {
	d := New()
	d.AddDirs("/tmp/some-fonts", "/tmp/more-fonts")
	if len(d.extraDirs) != 2 {
		t.Fatalf("got %d extraDirs, want 2", len(d.extraDirs))
	}
}

func mustParseScript(t *testing.T, tag string) language.Script {
	t.Helper()
	s, err := language.ParseScript(tag)
	if err != nil {
		t.Fatalf("ParseScript(%q): %v", tag, err)
	}
	return s
}
