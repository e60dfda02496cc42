// Command o4e is a thin line-delimited-JSON batch driver over the public
// engine API. It reads one job object per line from standard input, renders
// or shapes each one, and writes one result object per line to standard
// output, preserving input order. It exists so the engine's batching and
// backend-selection facade has a runnable boundary, not to host engine
// logic itself — see the o4e package for that.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/glyphkit/o4e"
	_ "github.com/glyphkit/o4e/coretext"
	_ "github.com/glyphkit/o4e/directwrite"
	"github.com/glyphkit/o4e/portable"
)

// maxLineBytes bounds a single job/result line, generous enough for a
// base64-encoded font payload embedded inline.
const maxLineBytes = 64 << 20

func main() {
	pterm.Info.Prefix = pterm.Prefix{Text: " o4e ", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: " o4e ", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stream":
		runStream(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		pterm.Error.Printf("unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	pterm.Println("usage: o4e stream [--cache-size N] [--base-dir PATH] [--format bitmap|png|svg]")
	pterm.Println("  reads one job object per line on stdin, writes one result object per line on stdout")
}

func runStream(args []string) {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	cacheSize := fs.Int("cache-size", 0, "font cache capacity per shard of each layer, 16 shards per layer (0 uses backend defaults)")
	baseDir := fs.String("base-dir", "", "additional directory added to the font database scan")
	defaultFormat := fs.String("format", "bitmap", "rendering format used when a job omits rendering.format")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	backend := portable.NewWithCacheCapacity(*cacheSize)
	if *baseDir != "" {
		backend.AddFontDir(*baseDir)
	}
	engine := o4e.NewWithBackend(backend)
	defer engine.Close()

	pterm.Info.Printf("streaming jobs through backend %q\n", engine.Name())

	succeeded, failed := 0, 0
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		res := processLine(engine, line, *defaultFormat)
		if res.Status == statusSuccess {
			succeeded++
		} else {
			failed++
		}
		encoded, err := json.Marshal(res)
		if err != nil {
			pterm.Error.Printf("marshal result for job %q: %v\n", res.ID, err)
			failed++
			continue
		}
		out.Write(encoded)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		pterm.Error.Printf("reading jobs: %v\n", err)
		out.Flush()
		os.Exit(2)
	}
	out.Flush()

	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"succeeded", "failed"},
		{fmt.Sprintf("%d", succeeded), fmt.Sprintf("%d", failed)},
	}).Render()
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// job mirrors the documented batch job wire format: one JSON object per
// line with font, text, and rendering sections.
type job struct {
	ID        string       `json:"id"`
	Font      jobFont      `json:"font"`
	Text      jobText      `json:"text"`
	Rendering jobRendering `json:"rendering"`
}

type jobFont struct {
	Path       string             `json:"path,omitempty"`
	Family     string             `json:"family,omitempty"`
	Bytes      string             `json:"bytes,omitempty"` // base64
	Size       float64            `json:"size"`
	Variations map[string]float64 `json:"variations,omitempty"`
	Features   map[string]bool    `json:"features,omitempty"`
}

type jobText struct {
	Content string `json:"content"`
}

type jobRendering struct {
	Format   string `json:"format"` // "bitmap", "png", or "svg"
	Encoding string `json:"encoding,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// result mirrors the documented output wire format.
type result struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"`
	Rendering *outRendering `json:"rendering,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type outRendering struct {
	Format   string `json:"format"`
	Encoding string `json:"encoding,omitempty"`
	Data     string `json:"data"`
}

func processLine(engine *o4e.Engine, line []byte, defaultFormat string) result {
	var j job
	if err := json.Unmarshal(line, &j); err != nil {
		return result{ID: "", Status: statusError, Error: fmt.Sprintf("invalid job: %v", err)}
	}

	font, err := toFont(j.Font)
	if err != nil {
		return result{ID: j.ID, Status: statusError, Error: err.Error()}
	}

	format := j.Rendering.Format
	if format == "" {
		format = defaultFormat
	}

	if format == "svg" {
		doc, err := engine.EmitSVG(j.Text.Content, font, o4e.SvgOptions{})
		if err != nil {
			return result{ID: j.ID, Status: statusError, Error: err.Error()}
		}
		return result{ID: j.ID, Status: statusSuccess, Rendering: &outRendering{Format: "svg", Data: doc}}
	}

	opts := o4e.RenderOptions{Width: j.Rendering.Width, Height: j.Rendering.Height}
	if format == "png" {
		opts.Format = o4e.FormatPNG
	}
	out, err := engine.Render(j.Text.Content, font, opts)
	if err != nil {
		return result{ID: j.ID, Status: statusError, Error: err.Error()}
	}

	var data []byte
	switch format {
	case "png":
		data = out.PNG
	default:
		format = "bitmap"
		if out.Bitmap != nil {
			data = out.Bitmap.Pixels
		}
	}
	return result{
		ID:     j.ID,
		Status: statusSuccess,
		Rendering: &outRendering{
			Format:   format,
			Encoding: "base64",
			Data:     base64.StdEncoding.EncodeToString(data),
		},
	}
}

func toFont(jf jobFont) (o4e.Font, error) {
	font := o4e.Font{
		Family:     jf.Family,
		Path:       jf.Path,
		SizePx:     jf.Size,
		Variations: jf.Variations,
		Features:   jf.Features,
	}
	if jf.Bytes != "" {
		raw, err := base64.StdEncoding.DecodeString(jf.Bytes)
		if err != nil {
			return o4e.Font{}, fmt.Errorf("decoding font bytes: %w", err)
		}
		font.Bytes = raw
	}
	return font, nil
}
