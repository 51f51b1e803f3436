// Package fingerprint computes perceptual hashes used to find near-duplicate photos.
//
// pHash keeps the sign of the low-frequency DCT coefficients of a 32x32 grayscale
// thumbnail relative to their median. dHash records whether brightness increases
// between horizontally adjacent pixels of a 9x8 thumbnail. Both are 64-bit values
// compared by Hamming distance.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"math/bits"
	"slices"
	"strconv"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	dctSize  = 32
	hashSide = 8
)

// Hashes holds the perceptual hashes of one image.
type Hashes struct {
	PHash uint64
	DHash uint64
}

// Compute decodes an image and computes its hashes.
func Compute(r io.Reader) (Hashes, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Hashes{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return ComputeImage(img), nil
}

// ComputeBytes is Compute over an in-memory image.
func ComputeBytes(data []byte) (Hashes, error) {
	return Compute(bytes.NewReader(data))
}

// ComputeImage computes the hashes of a decoded image.
func ComputeImage(img image.Image) Hashes {
	return Hashes{
		PHash: pHash(img),
		DHash: dHash(img),
	}
}

// Distance returns the number of differing bits between two hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two hashes differ in at most threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// NearDuplicate reports whether either hash pair is within threshold.
func NearDuplicate(a, b Hashes, threshold int) bool {
	return Similar(a.PHash, b.PHash, threshold) || Similar(a.DHash, b.DHash, threshold)
}

// Hex formats a hash as 16 lowercase hex digits.
func Hex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// ParseHex parses a hash produced by Hex.
func ParseHex(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

// grayThumbnail converts img to grayscale and scales it to w x h.
func grayThumbnail(img image.Image, w, h int) [][]float64 {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), gray, b, draw.Src, nil)

	rows := make([][]float64, h)
	for y := range h {
		rows[y] = make([]float64, w)
		for x := range w {
			rows[y][x] = float64(dst.GrayAt(x, y).Y)
		}
	}
	return rows
}

func pHash(img image.Image) uint64 {
	coeffs := dct2(grayThumbnail(img, dctSize, dctSize))

	low := make([]float64, 0, hashSide*hashSide)
	for y := range hashSide {
		low = append(low, coeffs[y][:hashSide]...)
	}
	med := median(low)

	var h uint64
	for i, v := range low {
		if v > med {
			h |= 1 << (63 - i)
		}
	}
	return h
}

func dHash(img image.Image) uint64 {
	px := grayThumbnail(img, hashSide+1, hashSide)

	var h uint64
	i := 0
	for y := range hashSide {
		for x := range hashSide {
			if px[y][x+1] > px[y][x] {
				h |= 1 << (63 - i)
			}
			i++
		}
	}
	return h
}

// dct2 is a separable 2D DCT-II over a square matrix.
func dct2(m [][]float64) [][]float64 {
	n := len(m)
	cos := make([][]float64, n)
	for k := range n {
		cos[k] = make([]float64, n)
		for i := range n {
			cos[k][i] = math.Cos(math.Pi * float64(k) * (2*float64(i) + 1) / float64(2*n))
		}
	}

	transform := func(v []float64) []float64 {
		out := make([]float64, n)
		for k := range n {
			var sum float64
			for i, x := range v {
				sum += x * cos[k][i]
			}
			out[k] = 2 * sum
		}
		return out
	}

	rows := make([][]float64, n)
	for y := range n {
		rows[y] = transform(m[y])
	}
	col := make([]float64, n)
	out := make([][]float64, n)
	for y := range n {
		out[y] = make([]float64, n)
	}
	for x := range n {
		for y := range n {
			col[y] = rows[y][x]
		}
		for y, v := range transform(col) {
			out[y][x] = v
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
