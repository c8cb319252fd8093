package scheduler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/chart"
	"github.com/bmsrender/bmsrender/internal/decode"
	"github.com/bmsrender/bmsrender/internal/midi"
	"github.com/bmsrender/bmsrender/internal/mixer"
	"github.com/bmsrender/bmsrender/internal/pcm"
)

// dedupWindowMs is the offline render's time-point coalescing window:
// points within 10ms of each other are deduplicated, taking the later.
const dedupWindowMs = 10

// tailSilenceMs pads the offline render past the last sound so release
// tails and reverb-like decays are not truncated.
const tailSilenceMs = 3000

// LoadJob is one (channel, filename) pair awaiting decode against some
// directory-ref bank.
type LoadJob struct {
	Channel  int
	Filename string
}

// Scheduler drives a Mixer from chart-derived event lanes. The zero
// value is not usable; construct with New.
type Scheduler struct {
	lanes      [][]KeySoundEvent
	cursors    []int
	laneLatest []*KeySoundEvent

	nowMs         int64
	autoplay      bool
	baseVolume    float64
	lastSoundTime int64

	bank      bank.Bank
	mixer     *mixer.Mixer
	soundInfo pcm.Info

	jobs       []LoadJob
	jobIndex   int
	soundCache map[int]*pcm.Buffer // channel -> decoded+mixer-cached sound
	boundName  map[int]string      // channel -> cache key used with mixer.CreateSound

	midiSynth *midi.Synth
}

// Config holds scheduler-wide options.
type Config struct {
	Autoplay   bool
	BaseVolume float64
}

// New builds a Scheduler from a chart source. soundFiles maps a chart's
// channel index to the bank-resolvable filename that channel plays;
// channels with no NoteOn events in src are simply never loaded.
func New(src chart.Source, soundFiles map[int]string, res bank.Bank, m *mixer.Mixer, info pcm.Info, cfg Config) *Scheduler {
	lanes := buildLanes(src)

	jobs := make([]LoadJob, 0, len(soundFiles))
	seen := make(map[int]bool)
	for _, lane := range lanes {
		for _, ev := range lane {
			if ev.IsMIDI || seen[ev.ChannelIndex] {
				continue
			}
			if name, ok := soundFiles[ev.ChannelIndex]; ok {
				jobs = append(jobs, LoadJob{Channel: ev.ChannelIndex, Filename: name})
				seen[ev.ChannelIndex] = true
			}
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Channel < jobs[j].Channel })

	return &Scheduler{
		lanes:         lanes,
		cursors:       make([]int, len(lanes)),
		laneLatest:    make([]*KeySoundEvent, len(lanes)),
		autoplay:      cfg.Autoplay,
		baseVolume:    cfg.BaseVolume,
		lastSoundTime: lastSoundTime(lanes),
		bank:          res,
		mixer:         m,
		soundInfo:     info,
		jobs:          jobs,
		soundCache:    make(map[int]*pcm.Buffer),
		boundName:     make(map[int]string),
	}
}

// BindMIDI attaches synth as both the target of MidiControl events and a
// streaming source bound into a dedicated Mixer channel, so the audio the
// synth produces in response to those events is pulled into every
// MixAll rather than only receiving events silently.
func (s *Scheduler) BindMIDI(synth *midi.Synth) {
	s.midiSynth = synth

	for _, ch := range s.mixer.Channels() {
		if ch.IsPlaying() || ch.IsOccupied() {
			continue
		}
		ch.BindStreaming(midi.NewSound(synth, s.soundInfo))
		ch.Play(1)
		return
	}
}

// GetLastSoundTime returns max(event.time) across all lanes.
func (s *Scheduler) GetLastSoundTime() int64 { return s.lastSoundTime }

// LoadNext decodes the next pending sound-bank job and binds it into the
// Mixer's cache, reporting a monotone progress in [0,1]. done is true
// once every job has been processed (including when there were none).
func (s *Scheduler) LoadNext() (progress float64, done bool, err error) {
	if s.jobIndex >= len(s.jobs) {
		return 1, true, nil
	}

	job := s.jobs[s.jobIndex]
	raw, err := s.bank.Resolve(job.Filename)
	if err != nil {
		return s.loadProgress(), false, fmt.Errorf("scheduler: load channel %d: %w", job.Channel, err)
	}

	buf, err := decode.Decode(raw, job.Filename, nil)
	if err != nil {
		return s.loadProgress(), false, fmt.Errorf("scheduler: decode channel %d (%s): %w", job.Channel, job.Filename, err)
	}

	cacheKey := "ch" + strconv.Itoa(job.Channel) + ":" + job.Filename
	cached, err := s.mixer.CreateSound(cacheKey, buf)
	if err != nil {
		return s.loadProgress(), false, fmt.Errorf("scheduler: cache channel %d: %w", job.Channel, err)
	}

	s.soundCache[job.Channel] = cached
	s.boundName[job.Channel] = cacheKey
	s.jobIndex++

	done = s.jobIndex >= len(s.jobs)
	return s.loadProgress(), done, nil
}

func (s *Scheduler) loadProgress() float64 {
	if len(s.jobs) == 0 {
		return 1
	}
	return float64(s.jobIndex) / float64(len(s.jobs))
}

// Advance moves now forward by deltaMs, executing every event with
// time <= now across all lanes. This is the incremental driving mode.
func (s *Scheduler) Advance(deltaMs int64) {
	s.nowMs += deltaMs

	for lane := range s.lanes {
		events := s.lanes[lane]
		cursor := s.cursors[lane]
		for cursor < len(events) && events[cursor].TimeMs <= s.nowMs {
			ev := events[cursor]
			s.execute(&ev)
			s.laneLatest[lane] = &ev
			cursor++
		}
		s.cursors[lane] = cursor
	}
}

func (s *Scheduler) execute(ev *KeySoundEvent) {
	if ev.IsMIDI {
		if s.midiSynth == nil {
			return
		}
		status, a, b := ev.Args[0], ev.Args[1], ev.Args[2]
		eventType := midi.DecodeStatus(status, a)
		if eventType == midi.EventNone {
			return
		}
		s.midiSynth.SendEvent(eventType, uint8(midi.Channel(status)), a, b)
		return
	}

	name, ok := s.boundName[ev.ChannelIndex]
	if !ok {
		return
	}
	sound := s.soundCache[ev.ChannelIndex]

	switch ev.Kind {
	case NoteOn:
		if ev.Autoplay || s.autoplay {
			ch := s.mixer.PlaySound(name, sound, 1)
			if ch != nil {
				ch.SetVolume(s.baseVolume)
			}
		}
	case NoteOff:
		for _, c := range s.mixer.Channels() {
			if c.Sound() == sound && c.IsPlaying() {
				c.Stop()
			}
		}
	}
}

// Play triggers the most recently scheduled event on lane: the
// user-driven "play(lane)" entry point (resolves via
// lane_mapping_[lane]).
func (s *Scheduler) Play(lane int) *mixer.Channel {
	if lane < 0 || lane >= len(s.laneLatest) || s.laneLatest[lane] == nil {
		return nil
	}
	ev := s.laneLatest[lane]
	if ev.IsMIDI || !ev.Playable {
		return nil
	}
	name, ok := s.boundName[ev.ChannelIndex]
	if !ok {
		return nil
	}
	sound := s.soundCache[ev.ChannelIndex]
	ch := s.mixer.PlaySound(name, sound, 1)
	if ch != nil {
		ch.SetVolume(s.baseVolume)
	}
	return ch
}

// RecordTo renders the whole chart offline into a freshly allocated
// buffer of GetLastSoundTime()+3000ms of silence: the offline driving
// mode. Time points are the union of all event times, deduplicated
// within dedupWindowMs (taking the later), walked with Advance+MixAll;
// the final tail is mixed without a further Advance.
func (s *Scheduler) RecordTo() (pcm.Buffer, error) {
	points := s.dedupedTimePoints()

	totalMs := s.lastSoundTime + tailSilenceMs
	out, err := pcm.AllocateDuration(s.soundInfo, totalMs)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("scheduler: record_to: allocate: %w", err)
	}

	prevMs := int64(0)
	frame := 0
	for i, p := range points {
		delta := p - prevMs
		if delta < 0 {
			continue
		}
		s.Advance(delta)
		s.mixer.Update()
		prevMs = p
		if frame == 0 {
			frame = s.soundInfo.FramesForMillis(p) // silence before the first event
		}
		if i+1 == len(points) {
			break // the final tail is mixed below
		}

		frameCount := s.soundInfo.FramesForMillis(points[i+1]) - frame
		if frameCount > 0 {
			s.mixer.MixAll(out.FrameSlice(frame, frame+frameCount), frameCount)
			frame += frameCount
		}
	}

	s.mixer.Update()
	if frame < out.Frames() {
		s.mixer.MixAll(out.FrameSlice(frame, out.Frames()), out.Frames()-frame)
	}

	return out, nil
}

// dedupedTimePoints returns the sorted union of every event time across
// all lanes, collapsing points within dedupWindowMs of their predecessor.
func (s *Scheduler) dedupedTimePoints() []int64 {
	seen := make(map[int64]bool)
	var all []int64
	for _, lane := range s.lanes {
		for _, ev := range lane {
			if !seen[ev.TimeMs] {
				seen[ev.TimeMs] = true
				all = append(all, ev.TimeMs)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	var deduped []int64
	for _, t := range all {
		if len(deduped) > 0 && t-deduped[len(deduped)-1] <= dedupWindowMs {
			deduped[len(deduped)-1] = t // take the later
			continue
		}
		deduped = append(deduped, t)
	}
	return deduped
}
