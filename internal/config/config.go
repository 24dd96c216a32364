// Package config defines the closed, validated configuration model for a
// duplicate search: which hash algorithm to use, whether image and audio
// similarity comparators are enabled, and the thresholds that govern them.
//
// Earlier prototypes accepted free-form algorithm names as strings and
// panicked deep inside the hasher when an unrecognized name slipped through.
// This package replaces that with closed enum types validated once, at
// construction time, so a bad config fails fast with a plain error instead
// of a panic mid-scan.
package config

import "fmt"

// HashAlgorithm selects the cryptographic hash used for content fingerprinting.
type HashAlgorithm string

const (
	HashMD5    HashAlgorithm = "md5"
	HashSHA1   HashAlgorithm = "sha1"
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA512 HashAlgorithm = "sha512"
)

func (h HashAlgorithm) valid() bool {
	switch h {
	case HashMD5, HashSHA1, HashSHA256, HashSHA512:
		return true
	}
	return false
}

// ImageHashAlgorithm selects the perceptual hashing algorithm applied to
// decoded images.
type ImageHashAlgorithm string

const (
	ImageHashMean           ImageHashAlgorithm = "mean"
	ImageHashMedian         ImageHashAlgorithm = "median"
	ImageHashGradient       ImageHashAlgorithm = "gradient"
	ImageHashVertGradient   ImageHashAlgorithm = "vert_gradient"
	ImageHashDoubleGradient ImageHashAlgorithm = "double_gradient"
	ImageHashBlockhash      ImageHashAlgorithm = "blockhash"
)

func (a ImageHashAlgorithm) valid() bool {
	switch a {
	case ImageHashMean, ImageHashMedian, ImageHashGradient, ImageHashVertGradient, ImageHashDoubleGradient, ImageHashBlockhash:
		return true
	}
	return false
}

// ImageFilterAlgorithm selects the resampling filter used to resize images
// down to the hash grid before hashing.
type ImageFilterAlgorithm string

const (
	ImageFilterNearest    ImageFilterAlgorithm = "nearest"
	ImageFilterTriangle   ImageFilterAlgorithm = "triangle"
	ImageFilterCatmullRom ImageFilterAlgorithm = "catmull_rom"
	ImageFilterGaussian   ImageFilterAlgorithm = "gaussian"
	ImageFilterLanczos3   ImageFilterAlgorithm = "lanczos3"
)

func (f ImageFilterAlgorithm) valid() bool {
	switch f {
	case ImageFilterNearest, ImageFilterTriangle, ImageFilterCatmullRom, ImageFilterGaussian, ImageFilterLanczos3:
		return true
	}
	return false
}

// HasherConfig controls content-hash fingerprinting.
type HasherConfig struct {
	// FullHash hashes the entire file. When false, QuickHash samples
	// evenly-spaced windows instead (cheaper, slightly weaker).
	FullHash bool
	// Algorithm is the hash function used for both modes.
	Algorithm HashAlgorithm
	// Size is the quick-hash window size in bytes, per split.
	Size uint64
	// Splits is the number of evenly-spaced windows quick-hash samples.
	Splits uint64
}

func (c HasherConfig) validate() error {
	if !c.Algorithm.valid() {
		return fmt.Errorf("config: unknown hash algorithm %q", c.Algorithm)
	}
	return nil
}

// ImageConfig controls perceptual image-similarity comparison.
type ImageConfig struct {
	// Compare enables the image comparator. When false, image hashes are
	// never computed and image similarity never contributes to a match.
	Compare bool
	// Algorithm is the perceptual hash algorithm.
	Algorithm ImageHashAlgorithm
	// Filter is the resize filter used before hashing.
	Filter ImageFilterAlgorithm
	// Size is the hash grid's side length (the hash is Size*Size bits,
	// except DoubleGradient which is 2*Size*Size bits).
	Size uint64
	// Threshold is the maximum Hamming distance considered a match.
	Threshold uint64
}

func (c ImageConfig) validate() error {
	if !c.Compare {
		return nil
	}
	if !c.Algorithm.valid() {
		return fmt.Errorf("config: unknown image hash algorithm %q", c.Algorithm)
	}
	if !c.Filter.valid() {
		return fmt.Errorf("config: unknown image filter algorithm %q", c.Filter)
	}
	if c.Size == 0 {
		return fmt.Errorf("config: image hash size must be positive")
	}
	return nil
}

// AudioConfig controls acoustic-fingerprint similarity comparison.
type AudioConfig struct {
	// Compare enables the audio comparator.
	Compare bool
	// Threshold is the maximum average segment score considered a match
	// (lower is more similar; 0 is identical, 32 is the worst score).
	Threshold float64
	// SegmentsLimit caps how many aligned segments a match may span;
	// fingerprints that only align across more segments than this are
	// rejected even if their score would otherwise pass.
	SegmentsLimit uint64
}

func (c AudioConfig) validate() error {
	if !c.Compare {
		return nil
	}
	if c.Threshold < 0 {
		return fmt.Errorf("config: audio threshold must be non-negative")
	}
	return nil
}

// SearchConfig is the complete, validated configuration for one Engine.
type SearchConfig struct {
	// SkipEmpty excludes zero-byte files from the walk results.
	SkipEmpty bool
	// SkipHidden excludes dotfiles and files under dot-directories.
	SkipHidden bool
	// Workers bounds the concurrency of the walk and process phases.
	// Zero means "use runtime.NumCPU()".
	Workers int
	// MinSize excludes files smaller than this many bytes. Under SkipEmpty
	// it is raised to at least 1, so zero-byte files are always excluded
	// even if MinSize itself is left at zero.
	MinSize int64
	// IncludeFilter, if non-empty, is a case-insensitive substring a file's
	// base name must contain.
	IncludeFilter string
	// ExcludeFilter, if non-empty, is a case-insensitive substring that
	// excludes matching base names.
	ExcludeFilter string

	Hasher HasherConfig
	Image  ImageConfig
	Audio  AudioConfig
}

// DefaultSearchConfig returns the baseline configuration: quick SHA-1
// content hashing, no image or audio comparison.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Hasher: HasherConfig{
			FullHash:  false,
			Algorithm: HashSHA1,
			Size:      1024,
			Splits:    8,
		},
		Image: ImageConfig{
			Compare:   false,
			Algorithm: ImageHashMean,
			Filter:    ImageFilterNearest,
			Size:      16,
			Threshold: 40,
		},
		Audio: AudioConfig{
			Compare:       false,
			Threshold:     10,
			SegmentsLimit: 4,
		},
	}
}

// Validate rejects a config that the engine cannot safely run with.
// It is called once, at Engine construction, so that a bad config fails
// fast with a plain error rather than panicking deep in a worker goroutine.
func (c SearchConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be non-negative, got %d", c.Workers)
	}
	if err := c.Hasher.validate(); err != nil {
		return err
	}
	if err := c.Image.validate(); err != nil {
		return err
	}
	if err := c.Audio.validate(); err != nil {
		return err
	}
	return nil
}
