// =============================================================================
// BMSRENDER - OFFLINE CHART RENDERER
// =============================================================================
// Reads a chart file plus its companion sound bank and writes a single
// decoded, mixed, and optionally pitch/tempo/volume-adjusted audio file.
// =============================================================================
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/chart"
	"github.com/bmsrender/bmsrender/internal/config"
	"github.com/bmsrender/bmsrender/internal/encode"
	"github.com/bmsrender/bmsrender/internal/midi"
	"github.com/bmsrender/bmsrender/internal/render"
	"github.com/bmsrender/bmsrender/internal/telemetry"
)

func main() {
	outputPath := pflag.String("output_path", "STDOUT", "output file, or STDOUT for stdout")
	outputType := pflag.String("type", "", "output container: wav|ogg|flac (else derived from output_path)")
	quality := pflag.Float64("quality", 0.6, "Ogg/Vorbis VBR quality, -0.1..1.0")
	pitch := pflag.Float64("pitch", 1.0, "pitch multiplier")
	tempo := pflag.Float64("tempo", 1.0, "tempo multiplier")
	volume := pflag.Float64("volume", 0.8, "master volume")
	stopDuplicated := pflag.Bool("stop_duplicated_sound", true, "stop an already-playing instance of a key sound before retriggering it")
	outputHTML := pflag.String("output_html", "", "optional path to also write an HTML rendering of the chart")
	pflag.Parse()

	if pflag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: render [flags] <input_path>")
		os.Exit(0)
	}
	inputPath := pflag.Arg(0)

	if err := godotenv.Load(filepath.Join(filepath.Dir(inputPath), ".env")); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}

	log.Println("================================")
	log.Println("  🎵 bmsrender - offline chart renderer")
	log.Println("================================")

	cfg := config.Load()
	cfg.Render.Quality = *quality
	cfg.Render.Pitch = *pitch
	cfg.Render.Tempo = *tempo
	cfg.Render.Volume = *volume
	cfg.Render.StopDuplicatedSound = *stopDuplicated
	if *outputType != "" {
		cfg.Render.Output = config.OutputFormat(*outputType)
	} else {
		cfg.Render.Output = formatFromPath(*outputPath, cfg.Render.Output)
	}

	if err := run(inputPath, *outputPath, *outputHTML, cfg); err != nil {
		fmt.Println("FAILED:", errors.WithStack(err))
		os.Exit(0)
	}
	fmt.Println("OK")
	os.Exit(0)
}

func run(inputPath, outputPath, outputHTMLPath string, cfg config.AppConfig) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return errors.Wrapf(err, "reading chart %s", inputPath)
	}

	src, soundFiles, midiFile, err := chart.LoadJSON(raw)
	if err != nil {
		return errors.Wrap(err, "parsing chart")
	}
	if len(src.Events()) == 0 {
		return errors.New("chart has no events")
	}

	res := bank.NewDirBank(filepath.Dir(inputPath))

	if outputHTMLPath != "" {
		if err := writeHTML(outputHTMLPath, src); err != nil {
			log.Printf("⚠️  failed to write HTML rendering: %v", err)
		}
	}

	var synth *midi.Synth
	if midiFile != "" {
		raw, err := res.Resolve(midiFile)
		if err != nil {
			return errors.Wrapf(err, "resolving MIDI file %s", midiFile)
		}
		synth, err = midi.NewSynth(raw, cfg.PCM.SampleRate, cfg.PCM.Channels, cfg.PCM.Bits)
		if err != nil {
			return errors.Wrap(err, "initializing MIDI synthesizer")
		}
		defer synth.Close()
	}

	pipeline := render.New(cfg, func(frac float64) {
		log.Printf("progress: %.0f%%", frac*100)
	})

	mixed, err := pipeline.Run(render.Input{Source: src, SoundFiles: soundFiles, Bank: res, MIDI: synth})
	if err != nil {
		return errors.Wrap(err, "rendering")
	}

	encoded, err := encode.Encode(mixed, cfg.Render.Output, encode.Options{Quality: cfg.Render.Quality})
	if err != nil {
		return errors.Wrap(err, "encoding")
	}
	telemetry.SetOutputBytes(len(encoded))

	if err := writeOutput(outputPath, encoded); err != nil {
		return errors.Wrap(err, "writing output")
	}

	if err := telemetry.Dump(os.Stderr); err != nil {
		log.Printf("⚠️  failed to dump metrics: %v", err)
	}

	return nil
}

func writeOutput(path string, data []byte) error {
	if strings.EqualFold(path, "STDOUT") {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func formatFromPath(path string, fallback config.OutputFormat) config.OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return config.OutputWAV
	case ".flac":
		return config.OutputFLAC
	case ".ogg":
		return config.OutputVorbis
	}
	return fallback
}

// writeHTML emits a minimal human-readable rendering of the chart's event
// timeline, a byproduct that can be generated alongside the audio render.
func writeHTML(path string, src chart.Source) error {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>chart</title></head><body>\n")
	b.WriteString("<table border=\"1\"><tr><th>time_ms</th><th>lane</th><th>channel</th><th>key</th><th>velocity</th><th>duration_ms</th></tr>\n")
	for _, ev := range src.Events() {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>\n",
			ev.TimeMs, ev.Lane, ev.Channel, ev.Key, ev.Velocity, ev.DurationMs)
	}
	b.WriteString("</table></body></html>\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
