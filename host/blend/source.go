package blend

import (
	"image"
	"image/color"
)

// PixelSource is a 2D grid of 8-bit RGB pixels
type PixelSource interface {
	// Size returns the grid dimensions
	Size() (width, height int)

	// RGB returns the pixel at x, y with 0 <= x < width and 0 <= y < height
	RGB(x, y int) (r, g, b uint8)
}

// ImageSource adapts an image.Image. Colors are read non-premultiplied and
// alpha is ignored.
type ImageSource struct {
	img    image.Image
	bounds image.Rectangle
}

// FromImage wraps img
func FromImage(img image.Image) *ImageSource {
	return &ImageSource{img: img, bounds: img.Bounds()}
}

func (s *ImageSource) Size() (int, int) {
	return s.bounds.Dx(), s.bounds.Dy()
}

func (s *ImageSource) RGB(x, y int) (uint8, uint8, uint8) {
	c := color.NRGBAModel.Convert(s.img.At(s.bounds.Min.X+x, s.bounds.Min.Y+y)).(color.NRGBA)
	return c.R, c.G, c.B
}
