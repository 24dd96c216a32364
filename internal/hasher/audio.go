package hasher

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/duplocate/deckard/internal/config"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	audioSampleRate = 11025 // chromaprint's canonical analysis rate
	fftSize         = 4096
	hopSize         = 1024
	numBands        = 33 // 33 bands → 32 adjacent-band bits per frame
)

// Fingerprint is a chromaprint-style sequence of 32-bit sub-band codes, one
// per analysis frame. Bit i of a frame's code is the sign of how much the
// energy gap between bands i and i+1 changed from the previous frame.
type Fingerprint []uint32

// ComputeAudioFingerprint decodes the audio in f (WAV or MP3, chosen by
// path's extension) and returns its acoustic fingerprint, resampled to
// 11025Hz mono first as chromaprint does.
func ComputeAudioFingerprint(path string, f *os.File) (Fingerprint, error) {
	samples, rate, channels, err := decodeAudio(path, f)
	if err != nil {
		return nil, fmt.Errorf("hasher: decoding audio %s: %w", path, err)
	}

	mono := toMono(samples, channels)
	mono = resample(mono, rate, audioSampleRate)

	if len(mono) < fftSize {
		return Fingerprint{}, nil
	}

	return fingerprintFromSamples(mono), nil
}

func decodeAudio(path string, f *os.File) (samples []float64, rate, channels int, err error) {
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, 0, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, 0, 0, err
		}
		buf := make([]byte, 4096)
		var pcm []int16
		for {
			n, err := dec.Read(buf)
			for i := 0; i+1 < n; i += 2 {
				pcm = append(pcm, int16(buf[i])|int16(buf[i+1])<<8)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, 0, 0, err
			}
			if n == 0 {
				break
			}
		}
		out := make([]float64, len(pcm))
		for i, s := range pcm {
			out[i] = float64(s) / 32768.0
		}
		return out, dec.SampleRate(), 2, nil

	default: // .wav and anything else we attempt as WAV
		dec := wav.NewDecoder(f)
		if !dec.IsValidFile() {
			return nil, 0, 0, fmt.Errorf("not a valid wav file")
		}
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, 0, 0, err
		}
		return pcmToFloat64(buf), int(dec.SampleRate), int(dec.NumChans), nil
	}
}

func pcmToFloat64(buf *audio.IntBuffer) []float64 {
	out := make([]float64, len(buf.Data))
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	max := float64(int(1) << (bitDepth - 1))
	for i, v := range buf.Data {
		out[i] = float64(v) / max
	}
	return out
}

func toMono(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}
	n := len(samples) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func resample(samples []float64, from, to int) []float64 {
	if from == to || from == 0 || len(samples) == 0 {
		return samples
	}
	ratio := float64(to) / float64(from)
	outLen := int(float64(len(samples)) * ratio)
	out := make([]float64, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		lo := int(srcPos)
		frac := srcPos - float64(lo)
		hi := lo + 1
		if hi >= len(samples) {
			hi = len(samples) - 1
		}
		if lo >= len(samples) {
			lo = len(samples) - 1
		}
		out[i] = samples[lo]*(1-frac) + samples[hi]*frac
	}
	return out
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// fft computes the Cooley-Tukey FFT of x, which must have power-of-two length.
func fft(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		return x
	}

	bits := int(math.Log2(float64(n)))
	result := make([]complex128, n)
	for i := 0; i < n; i++ {
		result[reverseBits(i, bits)] = x[i]
	}

	for s := 1; s <= bits; s++ {
		m := 1 << s
		wm := cmplx.Exp(complex(0, -2*math.Pi/float64(m)))
		for k := 0; k < n; k += m {
			w := complex(1, 0)
			for j := 0; j < m/2; j++ {
				t := w * result[k+j+m/2]
				u := result[k+j]
				result[k+j] = u + t
				result[k+j+m/2] = u - t
				w *= wm
			}
		}
	}
	return result
}

func reverseBits(num, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (num & 1)
		num >>= 1
	}
	return result
}

// bandEnergies splits a magnitude spectrum (fftSize/2 bins) into numBands
// logarithmically-spaced energy sums, mirroring chromaprint's filterbank.
func bandEnergies(magnitudes []float64) []float64 {
	numBins := len(magnitudes)
	energies := make([]float64, numBands)
	// Log-spaced band edges from bin 1 (skip DC) to numBins.
	for b := 0; b < numBands; b++ {
		lo := int(math.Pow(float64(numBins), float64(b)/float64(numBands)))
		hi := int(math.Pow(float64(numBins), float64(b+1)/float64(numBands)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > numBins {
			hi = numBins
		}
		var sum float64
		for i := lo; i < hi; i++ {
			sum += magnitudes[i]
		}
		energies[b] = math.Log(sum + 1e-9)
	}
	return energies
}

// fingerprintFromSamples runs the FFT-based analysis pipeline: Hann-windowed
// spectrogram → per-frame log-band energies → adjacent-band energy-gradient
// bits, differenced against the previous frame so each code captures how
// the spectral shape changed, the same signal chromaprint's filters extract.
func fingerprintFromSamples(samples []float64) Fingerprint {
	window := hannWindow(fftSize)
	numFrames := (len(samples) - fftSize) / hopSize
	if numFrames <= 0 {
		return Fingerprint{}
	}

	codes := make(Fingerprint, 0, numFrames)
	var prevGaps []float64

	for frame := 0; frame < numFrames; frame++ {
		start := frame * hopSize
		windowed := make([]complex128, fftSize)
		for i := 0; i < fftSize; i++ {
			windowed[i] = complex(samples[start+i]*window[i], 0)
		}
		spectrum := fft(windowed)

		magnitudes := make([]float64, fftSize/2)
		for i := range magnitudes {
			magnitudes[i] = cmplx.Abs(spectrum[i])
		}

		energies := bandEnergies(magnitudes)
		gaps := make([]float64, numBands-1)
		for i := 0; i < numBands-1; i++ {
			gaps[i] = energies[i] - energies[i+1]
		}

		var code uint32
		if prevGaps != nil {
			for i, g := range gaps {
				if g-prevGaps[i] > 0 {
					code |= 1 << uint(i)
				}
			}
		}
		codes = append(codes, code)
		prevGaps = gaps
	}

	return codes
}

// Segment is one aligned, matching stretch between two fingerprints, found
// by MatchFingerprints. Score is the average Hamming distance (bits out of
// 32) between aligned frame codes over the segment: 0 is a perfect match,
// 32 is the worst possible score.
type Segment struct {
	Offset int
	Frames int
	Score  float64
}

const (
	minOverlapFrames  = 8
	segmentScoreLimit = 16.0 // internal "is this offset worth reporting" cutoff
)

// MatchFingerprints aligns two fingerprints at every offset with sufficient
// overlap and reports each offset whose average per-frame Hamming distance
// is good enough to be considered an aligned match segment. Callers average
// the returned segments' scores and compare against their own threshold;
// an empty result means no alignment was found at all.
func MatchFingerprints(a, b Fingerprint, _ config.AudioConfig) []Segment {
	var segments []Segment
	if len(a) == 0 || len(b) == 0 {
		return segments
	}

	for offset := -(len(b) - 1); offset <= len(a)-1; offset++ {
		var aStart, bStart int
		if offset >= 0 {
			aStart, bStart = offset, 0
		} else {
			aStart, bStart = 0, -offset
		}
		overlap := min(len(a)-aStart, len(b)-bStart)
		if overlap < minOverlapFrames {
			continue
		}

		var totalBits int
		for i := 0; i < overlap; i++ {
			totalBits += popcount(a[aStart+i] ^ b[bStart+i])
		}
		score := float64(totalBits) / float64(overlap)
		if score <= segmentScoreLimit {
			segments = append(segments, Segment{Offset: offset, Frames: overlap, Score: score})
		}
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].Score < segments[j].Score })
	return segments
}

func popcount(x uint32) int {
	n := 0
	for x != 0 {
		n += int(x & 1)
		x >>= 1
	}
	return n
}

// AverageScore computes the caller-facing match score for a pair of
// fingerprints: the average score across all matching segments, or 32.0
// (chromaprint's worst possible score) when no segment aligns at all.
func AverageScore(segments []Segment) float64 {
	if len(segments) == 0 {
		return 32.0
	}
	var sum float64
	for _, s := range segments {
		sum += s.Score
	}
	return sum / float64(len(segments))
}
