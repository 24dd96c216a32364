package hasher

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/duplocate/deckard/internal/config"
	"golang.org/x/image/bmp"
)

// ImageHash is a perceptual hash: a fixed-length bit string produced by one
// of the algorithms in config.ImageHashAlgorithm. Two hashes are only
// comparable (via Distance) when they were computed with the same algorithm
// and size.
type ImageHash struct {
	Algorithm config.ImageHashAlgorithm
	Size      uint64
	Bits      []bool
}

// Distance returns the Hamming distance between two image hashes: the
// number of bit positions at which they differ. Lower means more similar.
func (h ImageHash) Distance(other ImageHash) int {
	n := min(len(h.Bits), len(other.Bits))
	dist := 0
	for i := 0; i < n; i++ {
		if h.Bits[i] != other.Bits[i] {
			dist++
		}
	}
	dist += len(h.Bits) - n
	if len(other.Bits) > len(h.Bits) {
		dist += len(other.Bits) - len(h.Bits)
	}
	return dist
}

func decodeImage(path string, f *os.File) (image.Image, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(f)
	case ".jpg", ".jpeg":
		return jpeg.Decode(f)
	case ".gif":
		return gif.Decode(f)
	case ".bmp":
		return bmp.Decode(f)
	default:
		img, _, err := image.Decode(f)
		return img, err
	}
}

func filterFor(alg config.ImageFilterAlgorithm) imaging.ResampleFilter {
	switch alg {
	case config.ImageFilterNearest:
		return imaging.NearestNeighbor
	case config.ImageFilterTriangle:
		return imaging.Linear
	case config.ImageFilterCatmullRom:
		return imaging.CatmullRom
	case config.ImageFilterGaussian:
		return imaging.Gaussian
	case config.ImageFilterLanczos3:
		return imaging.Lanczos
	default:
		return imaging.NearestNeighbor
	}
}

// ComputeImageHash decodes the image in f (using path's extension to pick a
// decoder) and computes its perceptual hash per cfg. cfg.Compare is not
// consulted here; the caller decides whether to hash at all. Decode
// failures are returned as errors so the caller can continue without an
// image hash for that file.
func ComputeImageHash(cfg config.ImageConfig, path string, f *os.File) (*ImageHash, error) {
	img, err := decodeImage(path, f)
	if err != nil {
		return nil, fmt.Errorf("hasher: decoding image %s: %w", path, err)
	}

	size := int(cfg.Size)

	var bits []bool
	switch cfg.Algorithm {
	case config.ImageHashMean:
		bits = meanHash(img, size, cfg.Filter)
	case config.ImageHashMedian:
		bits = medianHash(img, size, cfg.Filter)
	case config.ImageHashGradient:
		bits = gradientHash(img, size, cfg.Filter, false)
	case config.ImageHashVertGradient:
		bits = gradientHash(img, size, cfg.Filter, true)
	case config.ImageHashDoubleGradient:
		bits = append(gradientHash(img, size, cfg.Filter, false), gradientHash(img, size, cfg.Filter, true)...)
	case config.ImageHashBlockhash:
		bits = blockHash(img, size)
	default:
		return nil, fmt.Errorf("hasher: unknown image hash algorithm %q", cfg.Algorithm)
	}

	return &ImageHash{Algorithm: cfg.Algorithm, Size: cfg.Size, Bits: bits}, nil
}

func luma(img image.Image, x, y int) uint8 {
	c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
	return c.Y
}

func grayGrid(img image.Image, w, h int, filter imaging.ResampleFilter) [][]uint8 {
	resized := imaging.Resize(img, w, h, filter)
	gray := imaging.Grayscale(resized)
	grid := make([][]uint8, h)
	for y := 0; y < h; y++ {
		grid[y] = make([]uint8, w)
		for x := 0; x < w; x++ {
			grid[y][x] = luma(gray, x, y)
		}
	}
	return grid
}

func meanHash(img image.Image, size int, filter imaging.ResampleFilter) []bool {
	grid := grayGrid(img, size, size, filter)
	var sum int
	for _, row := range grid {
		for _, v := range row {
			sum += int(v)
		}
	}
	mean := sum / (size * size)

	bits := make([]bool, 0, size*size)
	for _, row := range grid {
		for _, v := range row {
			bits = append(bits, int(v) > mean)
		}
	}
	return bits
}

func medianHash(img image.Image, size int, filter imaging.ResampleFilter) []bool {
	grid := grayGrid(img, size, size, filter)
	flat := make([]uint8, 0, size*size)
	for _, row := range grid {
		flat = append(flat, row...)
	}
	sorted := append([]uint8(nil), flat...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := sorted[len(sorted)/2]

	bits := make([]bool, 0, size*size)
	for _, v := range flat {
		bits = append(bits, v > median)
	}
	return bits
}

// gradientHash compares each pixel to its neighbor (right for the
// horizontal gradient, below for the vertical one) over a grid one larger
// than size in the comparison direction, producing size*size bits.
func gradientHash(img image.Image, size int, filter imaging.ResampleFilter, vertical bool) []bool {
	var grid [][]uint8
	if vertical {
		grid = grayGrid(img, size, size+1, filter)
	} else {
		grid = grayGrid(img, size+1, size, filter)
	}

	bits := make([]bool, 0, size*size)
	if vertical {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				bits = append(bits, grid[y][x] > grid[y+1][x])
			}
		}
	} else {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				bits = append(bits, grid[y][x] > grid[y][x+1])
			}
		}
	}
	return bits
}

// blockHash divides the image directly into size*size blocks (no resize
// filter: the filter parameter is meaningless for block averaging) and
// thresholds each block's mean luma against the overall median, in the
// manner of the blockhash-ng algorithm.
func blockHash(img image.Image, size int) []bool {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := imaging.Grayscale(img)

	means := make([]int, size*size)
	idx := 0
	for by := 0; by < size; by++ {
		y0 := by * h / size
		y1 := (by + 1) * h / size
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for bx := 0; bx < size; bx++ {
			x0 := bx * w / size
			x1 := (bx + 1) * w / size
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum, count int
			for y := y0; y < y1 && y < h; y++ {
				for x := x0; x < x1 && x < w; x++ {
					sum += int(luma(gray, x+bounds.Min.X, y+bounds.Min.Y))
					count++
				}
			}
			if count == 0 {
				means[idx] = 0
			} else {
				means[idx] = sum / count
			}
			idx++
		}
	}

	sorted := append([]int(nil), means...)
	sort.Ints(sorted)
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	bits := make([]bool, size*size)
	for i, m := range means {
		bits[i] = m > median
	}
	return bits
}
