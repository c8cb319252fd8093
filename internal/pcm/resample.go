package pcm

import "github.com/bmsrender/bmsrender/internal/sample"

// ResampleTo converts b to the target format: width by value-space
// proportional scaling, channels by mono<->stereo duplication/averaging,
// and rate by linear interpolation between adjacent source samples.
func (b Buffer) ResampleTo(target Info) (Buffer, error) {
	if err := target.Validate(); err != nil {
		return Buffer{}, err
	}
	if b.info == target {
		return b.Clone(), nil
	}

	cur := b
	if cur.info.Channels != target.Channels {
		cur = remapChannels(cur, target.Channels)
	}
	if cur.info.Kind() != target.Kind() {
		cur = remapWidth(cur, target.Sign, target.Bits)
	}
	if cur.info.RateHz != target.RateHz {
		cur = remapRate(cur, target.RateHz)
	}
	return cur, nil
}

// remapWidth converts every sample to a new (sign, bits) pair, keeping
// channel count and rate, via the normalized Load/Store round trip.
func remapWidth(b Buffer, sign SignClass, bits int) Buffer {
	info := Info{Sign: sign, Bits: bits, Channels: b.info.Channels, RateHz: b.info.RateHz}
	out, _ := AllocateFrames(info, b.frames)
	srcKind := b.info.Kind()
	dstKind := info.Kind()
	srcStride := b.info.BytesPerSample()
	dstStride := info.BytesPerSample()
	nSamples := b.frames * b.info.Channels
	for i := 0; i < nSamples; i++ {
		v := sample.Load(srcKind, b.data, i*srcStride)
		sample.Store(dstKind, out.data, i*dstStride, v)
	}
	return out
}

// remapChannels handles mono<->stereo conversion: mono to stereo
// duplicates the sample into both channels; stereo (or N>1) to mono
// averages the channels.
func remapChannels(b Buffer, channels int) Buffer {
	if channels == b.info.Channels {
		return b
	}
	info := Info{Sign: b.info.Sign, Bits: b.info.Bits, Channels: channels, RateHz: b.info.RateHz}
	out, _ := AllocateFrames(info, b.frames)
	kind := b.info.Kind()
	stride := b.info.BytesPerSample()
	srcCh := b.info.Channels

	for f := 0; f < b.frames; f++ {
		srcBase := f * srcCh * stride
		dstBase := f * channels * stride
		if srcCh == 1 && channels >= 2 {
			v := sample.Load(kind, b.data, srcBase)
			for c := 0; c < channels; c++ {
				sample.Store(kind, out.data, dstBase+c*stride, v)
			}
		} else if channels == 1 {
			sum := 0.0
			for c := 0; c < srcCh; c++ {
				sum += sample.Load(kind, b.data, srcBase+c*stride)
			}
			sample.Store(kind, out.data, dstBase, sum/float64(srcCh))
		} else {
			// General N->M: copy overlapping channels, duplicate/drop the rest.
			for c := 0; c < channels; c++ {
				srcC := c
				if srcC >= srcCh {
					srcC = srcCh - 1
				}
				v := sample.Load(kind, b.data, srcBase+srcC*stride)
				sample.Store(kind, out.data, dstBase+c*stride, v)
			}
		}
	}
	return out
}

// remapRate linearly interpolates between adjacent source frames to
// produce a buffer at the target sample rate.
func remapRate(b Buffer, rateHz int) Buffer {
	if rateHz == b.info.RateHz || b.frames == 0 {
		info := b.info
		info.RateHz = rateHz
		out, _ := Take(info, b.frames, append([]byte(nil), b.data...))
		return out
	}
	info := Info{Sign: b.info.Sign, Bits: b.info.Bits, Channels: b.info.Channels, RateHz: rateHz}
	newFrames := int(int64(b.frames) * int64(rateHz) / int64(b.info.RateHz))
	out, _ := AllocateFrames(info, newFrames)

	kind := b.info.Kind()
	stride := b.info.BytesPerSample()
	channels := b.info.Channels
	ratio := float64(b.info.RateHz) / float64(rateHz)

	for f := 0; f < newFrames; f++ {
		srcPos := float64(f) * ratio
		i0 := int(srcPos)
		frac := srcPos - float64(i0)
		i1 := i0 + 1
		if i1 >= b.frames {
			i1 = b.frames - 1
		}
		if i0 >= b.frames {
			i0 = b.frames - 1
		}
		for c := 0; c < channels; c++ {
			v0 := sample.Load(kind, b.data, (i0*channels+c)*stride)
			v1 := sample.Load(kind, b.data, (i1*channels+c)*stride)
			v := v0 + (v1-v0)*frac
			sample.Store(kind, out.data, (f*channels+c)*stride, v)
		}
	}
	return out
}
