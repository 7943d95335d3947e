package clip

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/rupamthxt/imgvec/internal/imageproc"
)

// Normalization constants of the CLIP image processor
var (
	imageMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	imageStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Tensor is a dense FP32 tensor in row-major order
type Tensor struct {
	Shape []int
	Data  []float32
}

// Preprocess turns an RGB image into a [1, 3, size, size] pixel_values tensor:
// shortest side resized to size, center crop, rescale to [0,1], per-channel mean/std.
// The center square is cut before resizing, so the work never exceeds
// the source size whatever the aspect ratio.
func Preprocess(img *imageproc.RGB, size int) (*Tensor, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot preprocess empty image")
	}
	if img.Stride < imageproc.Channels*b.Dx() || len(img.Pix) < img.Stride*(b.Dy()-1)+imageproc.Channels*b.Dx() {
		return nil, fmt.Errorf("pixel buffer of %d bytes does not hold a %dx%d %d-channel image",
			len(img.Pix), b.Dx(), b.Dy(), imageproc.Channels)
	}

	short := min(b.Dx(), b.Dy())
	square := imaging.CropCenter(img, short, short)
	cropped := imaging.Resize(square, size, size, imaging.CatmullRom)

	cb := cropped.Bounds()
	if cb.Dx() != size || cb.Dy() != size {
		return nil, fmt.Errorf("unexpected crop size %dx%d, want %dx%d", cb.Dx(), cb.Dy(), size, size)
	}

	plane := size * size
	data := make([]float32, imageproc.Channels*plane)
	for y := 0; y < size; y++ {
		row := cropped.Pix[y*cropped.Stride:]
		for x := 0; x < size; x++ {
			px := row[x*4 : x*4+3] // NRGBA, alpha ignored
			for c := 0; c < imageproc.Channels; c++ {
				v := float32(px[c]) / 255
				data[c*plane+y*size+x] = (v - imageMean[c]) / imageStd[c]
			}
		}
	}

	return &Tensor{
		Shape: []int{1, imageproc.Channels, size, size},
		Data:  data,
	}, nil
}
