package recognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// Frame is a decoded camera frame prepared for upload.
type Frame struct {
	Data   []byte // JPEG sent to the embedding server
	Width  int    // dimensions of Data
	Height int
	SrcW   int // dimensions of the frame as captured
	SrcH   int
}

// PrepareFrame decodes an image and downscales it to fit within maxSize
// (width or height) keeping the aspect ratio. The result is always JPEG.
// A maxSize of zero or less disables resizing.
func PrepareFrame(data []byte, maxSize int) (Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := fitWithin(width, height, maxSize)

	out := img
	if newWidth != width || newHeight != height {
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Frame{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return Frame{
		Data:   buf.Bytes(),
		Width:  newWidth,
		Height: newHeight,
		SrcW:   width,
		SrcH:   height,
	}, nil
}

// fitWithin returns the dimensions of a width x height image scaled down to
// fit in a maxSize square. Images already small enough are unchanged.
func fitWithin(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}
	if width > height {
		return maxSize, max(1, int(float64(height)*float64(maxSize)/float64(width)))
	}
	return max(1, int(float64(width)*float64(maxSize)/float64(height))), maxSize
}
