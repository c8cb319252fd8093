// Package mixer implements the Channel playback slot and Mixer, adapted
// from an AudioMixer/activeSound pair and generalized from a fixed
// 16-bit-stereo game mix to any pcm.Info the renderer targets.
package mixer

import (
	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// Streaming is implemented by sources that are self-paced and should not
// have Channel's end-of-buffer detection applied — the MIDI adapter binds
// through this interface.
type Streaming interface {
	// Copy fills dst with the next frame_count frames, overwriting it,
	// and returns frames actually produced. Unlike a fixed Sound, a
	// Streaming source never "ends": it simply produces silence once
	// exhausted.
	Copy(dst []byte, frameCount int) int

	// Mix saturating-adds the next frame_count frames into dst, returning
	// frames actually produced. Mixer.MixAll calls this for every audible
	// channel.
	Mix(dst []byte, frameCount int) int
}

// Channel is one playback slot: a bound sound (or streaming source), a
// cursor, loop count, and pause/fade state.
type Channel struct {
	info pcm.Info

	sound     *pcm.Buffer
	streaming Streaming

	cursor        int
	loopRemaining int
	paused        bool

	volume       float64
	fadeTotalMs  int64
	fadeRemainMs int64
}

// NewChannel creates an idle channel rendering at info.
func NewChannel(info pcm.Info) *Channel {
	return &Channel{info: info, volume: 1.0}
}

// IsPlaying reports whether loop_remaining > 0, exactly; Pause leaves
// loop_remaining untouched and instead gates
// rendering separately (see active()), so a paused channel still reports
// IsPlaying() true.
func (c *Channel) IsPlaying() bool {
	return c.loopRemaining > 0
}

// active reports whether the channel should actually render audio right
// now: playing and not paused.
func (c *Channel) active() bool {
	return c.IsPlaying() && !c.paused
}

// IsOccupied reports whether the channel is bound to a sound at all
// (playing, paused, or exhausted-but-not-yet-reclaimed).
func (c *Channel) IsOccupied() bool {
	return c.sound != nil || c.streaming != nil
}

// BindSound binds a static sound buffer to the channel, matching info.
func (c *Channel) BindSound(sound *pcm.Buffer) {
	c.sound = sound
	c.streaming = nil
}

// BindStreaming binds a self-paced streaming source (the MIDI adapter).
func (c *Channel) BindStreaming(s Streaming) {
	c.streaming = s
	c.sound = nil
}

// Sound returns the bound static sound, or nil if none/streaming.
func (c *Channel) Sound() *pcm.Buffer { return c.sound }

// Play resets the cursor to 0 and sets the loop counter, clearing pause
// and fade.
func (c *Channel) Play(loopCount int) {
	c.cursor = 0
	c.loopRemaining = loopCount
	c.paused = false
	c.fadeTotalMs = 0
	c.fadeRemainMs = 0
}

// Resume resumes if paused, else behaves as Play(1).
func (c *Channel) Resume() {
	if c.paused {
		c.paused = false
		return
	}
	c.Play(1)
}

// Stop is Play(0).
func (c *Channel) Stop() {
	c.Play(0)
}

// Pause suspends advancement without resetting the cursor.
func (c *Channel) Pause() {
	c.paused = true
}

// SetFadePoint installs a linear fade-out of duration ms starting now.
func (c *Channel) SetFadePoint(ms int64) {
	c.fadeTotalMs = ms
	c.fadeRemainMs = ms
}

// effectiveVolume is v·(1 − fade_remain/fade_total).
func (c *Channel) effectiveVolume() float64 {
	if c.fadeTotalMs <= 0 {
		return c.volume
	}
	remain := float64(c.fadeRemainMs) / float64(c.fadeTotalMs)
	if remain < 0 {
		remain = 0
	}
	return c.volume * (1 - remain)
}

// AdvanceFade decrements the fade clock by ms; once exhausted, the
// channel continues at zero effective volume rather than stopping.
func (c *Channel) AdvanceFade(ms int64) {
	if c.fadeTotalMs <= 0 {
		return
	}
	c.fadeRemainMs -= ms
	if c.fadeRemainMs < 0 {
		c.fadeRemainMs = 0
	}
}

// SetVolume sets the channel's base volume (pre-fade).
func (c *Channel) SetVolume(v float64) { c.volume = v }

// recentLevel computes an RMS-like mean of |samples| over the window
// frames starting at the current cursor, used by Mixer.Update's
// audibility rank.
func (c *Channel) recentLevel(window int) float64 {
	if c.sound == nil || !c.active() {
		return 0
	}
	buf := *c.sound
	kind := buf.Kind()
	stride := buf.Info().BytesPerFrame()
	bps := buf.Info().BytesPerSample()
	data := buf.Bytes()

	start := c.cursor
	end := start + window
	if end > buf.Frames() {
		end = buf.Frames()
	}
	if end <= start {
		return 0
	}

	var sum float64
	n := 0
	for i := start; i < end; i++ {
		for ch := 0; ch < buf.Info().Channels; ch++ {
			v := sample.Load(kind, data, i*stride+ch*bps)
			if v < 0 {
				v = -v
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Copy zero-fills dst then writes min(remaining, frame_count) frames from
// the current sound at the current cursor, advancing it; on reaching
// end-of-buffer it decrements the loop counter and wraps the cursor to 0.
// When bound to a Streaming source, end-of-buffer detection is
// suppressed and Copy simply delegates.
func (c *Channel) Copy(dst []byte, frameCount int) {
	for i := range dst {
		dst[i] = 0
	}
	if c.streaming != nil {
		c.streaming.Copy(dst, frameCount)
		return
	}
	if c.sound == nil || !c.active() {
		return
	}
	c.render(dst, frameCount, false)
}

// Mix is identical to Copy except it saturating-adds into dst rather than
// overwriting.
func (c *Channel) Mix(dst []byte, frameCount int) {
	if c.streaming != nil {
		c.streaming.Mix(dst, frameCount)
		return
	}
	if c.sound == nil || !c.active() {
		return
	}
	c.render(dst, frameCount, true)
}

func (c *Channel) render(dst []byte, frameCount int, mixInto bool) {
	buf := *c.sound
	stride := buf.Info().BytesPerFrame()
	data := buf.Bytes()
	gain := c.effectiveVolume()

	written := 0
	for written < frameCount && c.loopRemaining != 0 {
		remaining := buf.Frames() - c.cursor
		if remaining <= 0 {
			c.cursor = 0
			if c.loopRemaining > 0 {
				c.loopRemaining--
			}
			if c.loopRemaining == 0 {
				break
			}
			continue
		}

		toRead := frameCount - written
		if toRead > remaining {
			toRead = remaining
		}

		srcOff := c.cursor * stride
		dstOff := written * stride
		n := toRead * buf.Info().Channels

		if mixInto {
			sample.MixScaled(buf.Kind(), dst[dstOff:], data[srcOff:], n, gain)
		} else {
			sample.CopyScaled(buf.Kind(), dst[dstOff:], data[srcOff:], n, gain)
		}

		c.cursor += toRead
		written += toRead

		if c.cursor >= buf.Frames() {
			c.cursor = 0
			if c.loopRemaining > 0 {
				c.loopRemaining--
			}
		}
	}
}
