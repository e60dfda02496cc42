package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/glyphkit/o4e"
	"github.com/glyphkit/o4e/portable"
)

func testEngine(t *testing.T) *o4e.Engine {
	t.Helper()
	return o4e.NewWithBackend(portable.New())
}

func TestProcessLineRendersBitmap(t *testing.T) {
	engine := testEngine(t)
	j := job{
		ID:        "a",
		Font:      jobFont{Bytes: base64.StdEncoding.EncodeToString(goregular.TTF), Size: 18},
		Text:      jobText{Content: "Hi"},
		Rendering: jobRendering{Format: "bitmap", Width: 80, Height: 30},
	}
	line, err := json.Marshal(j)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	res := processLine(engine, line, "bitmap")
	if res.Status != statusSuccess {
		t.Fatalf("status = %q, want success; error=%s", res.Status, res.Error)
	}
	if res.Rendering == nil || res.Rendering.Data == "" {
		t.Fatal("expected non-empty rendering data")
	}
	if res.ID != "a" {
		t.Errorf("ID = %q, want %q", res.ID, "a")
	}
}

func TestProcessLineEmitsSVG(t *testing.T) {
	engine := testEngine(t)
	j := job{
		ID:        "b",
		Font:      jobFont{Bytes: base64.StdEncoding.EncodeToString(goregular.TTF), Size: 18},
		Text:      jobText{Content: "Hi"},
		Rendering: jobRendering{Format: "svg"},
	}
	line, _ := json.Marshal(j)
	res := processLine(engine, line, "bitmap")
	if res.Status != statusSuccess {
		t.Fatalf("status = %q, want success; error=%s", res.Status, res.Error)
	}
	if res.Rendering.Format != "svg" {
		t.Errorf("Format = %q, want svg", res.Rendering.Format)
	}
}

func TestProcessLineInvalidJSON(t *testing.T) {
	engine := testEngine(t)
	res := processLine(engine, []byte("{not json"), "bitmap")
	if res.Status != statusError {
		t.Fatal("expected error status for malformed job")
	}
}

func TestProcessLineMissingDimensions(t *testing.T) {
	engine := testEngine(t)
	j := job{ID: "c", Font: jobFont{Bytes: base64.StdEncoding.EncodeToString(goregular.TTF), Size: 18}, Text: jobText{Content: "x"}}
	line, _ := json.Marshal(j)
	res := processLine(engine, line, "bitmap")
	if res.Status != statusError {
		t.Fatal("expected error status for zero-size canvas")
	}
}

func TestToFontDecodesBytes(t *testing.T) {
	jf := jobFont{Bytes: base64.StdEncoding.EncodeToString(goregular.TTF), Size: 12}
	font, err := toFont(jf)
	if err != nil {
		t.Fatalf("toFont: %v", err)
	}
	if len(font.Bytes) != len(goregular.TTF) {
		t.Errorf("got %d bytes, want %d", len(font.Bytes), len(goregular.TTF))
	}
}

func TestToFontInvalidBase64(t *testing.T) {
	if _, err := toFont(jobFont{Bytes: "not-base64!!"}); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
