package texture

import (
	stdimage "image"
	"image/color"

	"golang.org/x/image/draw"
)

// Downscale resizes t to at most maxW x maxH using nearest-neighbor
// filtering (the right choice for voxel-palette/atlas content, where linear
// filtering would blur hard color-index boundaries into invalid in-between
// colors). Returns t unchanged if it already fits.
func Downscale(t *Texture, maxW, maxH int) *Texture {
	if t.width <= maxW && t.height <= maxH {
		return t
	}
	w, h := fitWithin(t.width, t.height, maxW, maxH)

	src := stdimage.NewNRGBA(stdimage.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			src.Set(x, y, unpackColor(t.GetPixel(x, y)))
		}
	}

	dst := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetPixel(x, y, packColor(dst.NRGBAAt(x, y)))
		}
	}
	return out
}

func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func unpackColor(packed uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(packed),
		G: uint8(packed >> 8),
		B: uint8(packed >> 16),
		A: uint8(packed >> 24),
	}
}

func packColor(c color.NRGBA) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
}
