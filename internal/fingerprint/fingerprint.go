// Package fingerprint computes perceptual difference hashes so that repeated
// photos of the same shot can be told apart from genuinely different ones.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DHash decodes an image and computes its 64-bit difference hash.
func DHash(data []byte) (uint64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return Hash(img), nil
}

// Hash computes the 64-bit difference hash of img: the image is shrunk to
// 9x8 grayscale and each bit tells whether a pixel is brighter than its
// right neighbour.
func Hash(img image.Image) uint64 {
	small := image.NewGray(image.Rect(0, 0, 9, 8))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if small.GrayAt(x, y).Y > small.GrayAt(x+1, y).Y {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// Distance is the Hamming distance between two hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Set remembers hashes and reports near duplicates.
type Set struct {
	threshold int
	hashes    []uint64
}

// NewSet creates a set treating hashes within threshold bits as duplicates.
func NewSet(threshold int) *Set {
	return &Set{threshold: threshold}
}

// Add stores hash unless a stored hash is within the threshold, in which case
// it returns false.
func (s *Set) Add(hash uint64) bool {
	for _, h := range s.hashes {
		if Distance(h, hash) <= s.threshold {
			return false
		}
	}
	s.hashes = append(s.hashes, hash)
	return true
}

// Len returns the number of stored hashes.
func (s *Set) Len() int {
	return len(s.hashes)
}
