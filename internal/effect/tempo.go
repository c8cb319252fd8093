package effect

import (
	"fmt"
	"math"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// SOLA (Synchronized Overlap-Add) segment/overlap sizing (the overlap
// count must be a multiple of 8; the generic sample.Load/Store path used
// here has no SIMD alignment requirement, but the constant is kept to
// match the reference behavior).
const (
	solaSegmentFrames = 2048
	solaOverlapFrames = 32
)

// Tempo stretches buf to ⌊frames_in · length⌋ frames while preserving
// pitch, via SOLA: each segment's source read position is searched
// ±overlap frames around the expected position for the offset
// that maximises normalised cross-correlation against the tail of the
// already-written output, then segments are joined by a linear cross-fade.
func Tempo(buf pcm.Buffer, length float64) (pcm.Buffer, error) {
	if length <= 0 {
		return pcm.Buffer{}, fmt.Errorf("effect: tempo: length must be positive, got %v", length)
	}

	if length == 1.0 {
		return buf.Clone(), nil
	}

	info := buf.Info()
	framesIn := buf.Frames()
	framesOut := int(float64(framesIn) * length)

	out, err := pcm.AllocateFrames(info, framesOut)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("effect: tempo: %w", err)
	}
	if framesOut == 0 || framesIn == 0 {
		return out, nil
	}

	kind := info.Kind()
	bps := info.BytesPerSample()
	channels := info.Channels
	stride := channels * bps
	src := buf.Bytes()
	dst := out.Bytes()

	maxSrcStart := framesIn - solaSegmentFrames
	if maxSrcStart < 0 {
		maxSrcStart = 0
	}

	cursorOut := 0
	first := true
	for cursorOut < framesOut {
		srcExp := framesIn * cursorOut / framesOut
		if srcExp > maxSrcStart {
			srcExp = maxSrcStart
		}
		if srcExp < 0 {
			srcExp = 0
		}

		srcStart := srcExp
		if !first {
			srcStart = bestOffset(src, kind, bps, stride, channels, framesIn, srcExp, dst, stride, cursorOut)
		}

		segEnd := srcStart + solaSegmentFrames
		if segEnd > framesIn {
			segEnd = framesIn
		}
		segLen := segEnd - srcStart
		if segLen <= 0 {
			break
		}

		// Later segments start over the trailing overlap already written,
		// the window bestOffset matched them against.
		writeStart := cursorOut
		leadOverlap := 0
		if !first && cursorOut >= solaOverlapFrames && segLen > solaOverlapFrames {
			leadOverlap = solaOverlapFrames
			writeStart = cursorOut - leadOverlap
		}

		writeLen := segLen
		if remaining := framesOut - writeStart; writeLen > remaining {
			writeLen = remaining
		}

		for i := 0; i < writeLen; i++ {
			srcIdx := srcStart + i
			for ch := 0; ch < channels; ch++ {
				v := sample.Load(kind, src, srcIdx*stride+ch*bps)
				if i < leadOverlap {
					existing := sample.Load(kind, dst, (writeStart+i)*stride+ch*bps)
					fadeIn := float64(i+1) / float64(solaOverlapFrames+1)
					v = existing*(1-fadeIn) + v*fadeIn
				}
				sample.Store(kind, dst, (writeStart+i)*stride+ch*bps, v)
			}
		}

		cursorOut = writeStart + writeLen
		first = false
		if writeLen < segLen {
			break // truncated final segment: no further segment follows
		}
	}

	return out, nil
}

// bestOffset searches [srcExp-overlap, srcExp+overlap-1] for the source
// start position whose leading solaOverlapFrames window maximises
// normalised cross-correlation against the trailing solaOverlapFrames
// frames already written to dst ending at cursorOut. Ties favor the
// lowest offset.
func bestOffset(src []byte, kind sample.Kind, bps, stride, channels, framesIn, srcExp int, dst []byte, dstStride, cursorOut int) int {
	if cursorOut < solaOverlapFrames {
		return srcExp
	}

	lo := srcExp - solaOverlapFrames
	hi := srcExp + solaOverlapFrames - 1
	tailStart := cursorOut - solaOverlapFrames

	best := srcExp
	bestCorr := math.Inf(-1)
	for off := lo; off <= hi; off++ {
		if off < 0 || off+solaOverlapFrames > framesIn {
			continue
		}
		corr := crossCorrelate(src, kind, bps, stride, off, dst, dstStride, tailStart, solaOverlapFrames, channels)
		if corr > bestCorr {
			bestCorr = corr
			best = off
		}
	}
	return best
}

// crossCorrelate computes Σ(candidate·tail) / sqrt(Σ candidate²) over
// solaOverlapFrames frames and channels channels.
func crossCorrelate(candidateBuf []byte, kind sample.Kind, bps, candStride, candStart int, tailBuf []byte, tailStride, tailStart, frames, channels int) float64 {
	var corr, norm float64
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			c := sample.Load(kind, candidateBuf, (candStart+i)*candStride+ch*bps)
			t := sample.Load(kind, tailBuf, (tailStart+i)*tailStride+ch*bps)
			corr += c * t
			norm += c * c
		}
	}
	if norm < 1e-9 {
		norm = 1
	}
	return corr / math.Sqrt(norm)
}
