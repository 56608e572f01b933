package blur

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// GenerateGaussianKernel returns a size x size Gaussian kernel whose weights
// sum to 1. Sigma is size/3. Sizes below 1 are treated as 1.
func GenerateGaussianKernel(size int) [][]float64 {
	w := gaussianWeights(max(size, 1))
	kernel := make([][]float64, len(w))
	for i, wy := range w {
		kernel[i] = make([]float64, len(w))
		for j, wx := range w {
			kernel[i][j] = wy * wx
		}
	}
	return kernel
}

// gaussianWeights is the normalized 1-D profile; the 2-D kernel is its outer product.
func gaussianWeights(size int) []float64 {
	sigma := float64(size) / 3
	half := size / 2
	w := make([]float64, size)
	var total float64
	for i := range w {
		d := float64(i - half)
		w[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

// toRGBA returns img as *image.RGBA, copying only when needed
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// ApplyBlurToImage applies a Gaussian blur of kernelSize to img.
func ApplyBlurToImage(img image.Image, kernelSize int) *image.RGBA {
	kernel := GenerateGaussianKernel(kernelSize)
	kernelSize = len(kernel)
	src := toRGBA(img)
	bounds := src.Bounds()
	blurred := image.NewRGBA(bounds)
	offset := kernelSize / 2

	width := bounds.Dx()
	height := bounds.Dy()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var rSum, gSum, bSum, aSum float64

			for ky := 0; ky < kernelSize; ky++ {
				for kx := 0; kx < kernelSize; kx++ {
					// clamp to edges
					sx := clamp(x+kx-offset, width)
					sy := clamp(y+ky-offset, height)

					pixel := src.RGBAAt(sx+bounds.Min.X, sy+bounds.Min.Y)
					weight := kernel[ky][kx]

					rSum += float64(pixel.R) * weight
					gSum += float64(pixel.G) * weight
					bSum += float64(pixel.B) * weight
					aSum += float64(pixel.A) * weight
				}
			}

			blurred.SetRGBA(x+bounds.Min.X, y+bounds.Min.Y, color.RGBA{
				R: channel(rSum),
				G: channel(gSum),
				B: channel(bSum),
				A: channel(aSum),
			})
		}
	}

	return blurred
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}

func channel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
