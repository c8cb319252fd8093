// Package render orchestrates the full offline pipeline: preload the
// sound bank, run the scheduler's offline render, apply the effector
// chain, and hand the result off for encoding.
package render

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/chart"
	"github.com/bmsrender/bmsrender/internal/config"
	"github.com/bmsrender/bmsrender/internal/effect"
	"github.com/bmsrender/bmsrender/internal/midi"
	"github.com/bmsrender/bmsrender/internal/mixer"
	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/scheduler"
	"github.com/bmsrender/bmsrender/internal/telemetry"
)

// Progress is called with a monotone value in [0,1] as the pipeline
// advances. Calls are throttled through a rate.Limiter so a chart with
// thousands of events doesn't flood a slow terminal or log sink with one
// callback per event.
type Progress func(fraction float64)

// progressBudget bounds how often Progress fires; one update every 50ms
// is imperceptible as a skip but keeps a long render's stdout readable.
const progressBudget = 20 // per second

// Pipeline runs one chart-to-PCM render.
type Pipeline struct {
	cfg      config.AppConfig
	progress Progress
	limiter  *rate.Limiter
}

// New creates a Pipeline. progress may be nil.
func New(cfg config.AppConfig, progress Progress) *Pipeline {
	if progress == nil {
		progress = func(float64) {}
	}
	return &Pipeline{
		cfg:      cfg,
		progress: progress,
		limiter:  rate.NewLimiter(rate.Limit(progressBudget), 1),
	}
}

func (p *Pipeline) report(fraction float64) {
	if fraction >= 1 || p.limiter.Allow() {
		p.progress(fraction)
	}
}

// Input bundles everything a render needs beyond configuration: the
// chart's event source, its channel->filename mapping, the bank those
// filenames resolve against, and an optional MIDI synth for lane-0
// control events.
type Input struct {
	Source     chart.Source
	SoundFiles map[int]string
	Bank       bank.Bank
	MIDI       *midi.Synth
}

// Run executes preload -> mix -> effect, returning the final PCM buffer
// ready for internal/encode.
func (p *Pipeline) Run(in Input) (pcm.Buffer, error) {
	info := pcm.Info{
		Sign:     pcm.Signed,
		Bits:     p.cfg.PCM.Bits,
		Channels: p.cfg.PCM.Channels,
		RateHz:   p.cfg.PCM.SampleRate,
	}

	m := mixer.New(info, mixer.HardChannelCap, p.cfg.Render.MaxAudible, p.cfg.Render.StopDuplicatedSound)

	sch := scheduler.New(in.Source, in.SoundFiles, in.Bank, m, info, scheduler.Config{
		Autoplay:   true,
		BaseVolume: 1.0, // the RenderConfig.Volume master gain is applied once, as a post-mix effect
	})
	if in.MIDI != nil {
		sch.BindMIDI(in.MIDI)
	}

	if err := p.preload(sch); err != nil {
		return pcm.Buffer{}, fmt.Errorf("render: preload: %w", err)
	}

	mixed, err := p.mix(sch)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("render: mix: %w", err)
	}

	out, err := p.applyEffects(mixed)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("render: effect: %w", err)
	}

	p.report(1)
	return out, nil
}

func (p *Pipeline) preload(sch *scheduler.Scheduler) error {
	start := time.Now()
	defer func() { telemetry.RecordStage("preload", time.Since(start)) }()

	pool := scheduler.NewLoadPool(p.cfg.Pool.Workers)
	if err := sch.LoadAllParallel(pool); err != nil {
		telemetry.RecordDecodeJob(false)
		return err
	}
	telemetry.RecordDecodeJob(true)
	p.report(0.4)
	return nil
}

func (p *Pipeline) mix(sch *scheduler.Scheduler) (pcm.Buffer, error) {
	start := time.Now()
	defer func() { telemetry.RecordStage("mix", time.Since(start)) }()

	out, err := sch.RecordTo()
	if err != nil {
		return pcm.Buffer{}, err
	}
	p.report(0.75)
	return out, nil
}

func (p *Pipeline) applyEffects(buf pcm.Buffer) (pcm.Buffer, error) {
	start := time.Now()
	defer func() { telemetry.RecordStage("effect", time.Since(start)) }()

	out := buf
	var err error

	if p.cfg.Render.Volume != 1.0 {
		out, err = effect.Volume(out, p.cfg.Render.Volume)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("volume: %w", err)
		}
	}
	if p.cfg.Render.Pitch != 1.0 {
		out, err = effect.Pitch(out, p.cfg.Render.Pitch)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("pitch: %w", err)
		}
	}
	if p.cfg.Render.Tempo != 1.0 {
		out, err = effect.Tempo(out, p.cfg.Render.Tempo)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("tempo: %w", err)
		}
	}

	p.report(0.95)
	return out, nil
}
