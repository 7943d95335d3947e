package imageproc

import (
	"image"
	"image/color"
)

// RGB is an in-memory image with three 8-bit channels per pixel and no alpha.
// Pix holds the pixels in R, G, B order, row by row.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

const Channels = 3

func NewRGB(r image.Rectangle) *RGB {
	return &RGB{
		Pix:    make([]uint8, Channels*r.Dx()*r.Dy()),
		Stride: Channels * r.Dx(),
		Rect:   r,
	}
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color {
	if !image.Pt(x, y).In(p.Rect) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{p.Pix[i], p.Pix[i+1], p.Pix[i+2], 0xff}
}

// PixOffset returns the index of the first element of Pix for pixel (x, y)
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*Channels
}

func (p *RGB) set(x, y int, r, g, b uint8) {
	i := p.PixOffset(x, y)
	p.Pix[i] = r
	p.Pix[i+1] = g
	p.Pix[i+2] = b
}

// ToRGB converts img to the 3-channel RGB encoding.
// An *RGB is returned unchanged. Alpha is discarded, not composited.
func ToRGB(img image.Image) *RGB {
	if rgb, ok := img.(*RGB); ok {
		return rgb
	}

	b := img.Bounds()
	dst := NewRGB(b)

	switch src := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v := src.GrayAt(x, y).Y
				dst.set(x, y, v, v, v)
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.NRGBAAt(x, y)
				dst.set(x, y, c.R, c.G, c.B)
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				dst.set(x, y, c.R, c.G, c.B)
			}
		}
	}
	return dst
}
