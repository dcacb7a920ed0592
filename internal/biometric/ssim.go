package biometric

import (
	"errors"
	"image"
)

// ErrIncompatibleImage is returned when two images cannot be compared because
// their pixel grids differ.
var ErrIncompatibleImage = errors.New("incompatible image dimensions")

// Stabilizing constants for an 8-bit dynamic range: (0.01*255)^2 and (0.03*255)^2.
const (
	ssimC1 = 6.5025
	ssimC2 = 58.5225
)

// DefaultBlockSize is the side length of the square SSIM windows.
const DefaultBlockSize = 8

// blockStats holds the per-window moments needed by the SSIM formula.
type blockStats struct {
	mean1, mean2 float64
	var1, var2   float64
	cov          float64
}

// Score computes the mean structural similarity between two grayscale images
// of identical dimensions. The result is bounded in roughly [-1, 1], with 1
// meaning identical content. Images of different sizes fail with
// ErrIncompatibleImage.
func Score(a, b *image.Gray, blockSize int) (float64, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	ba, bb := a.Bounds(), b.Bounds()
	if ba.Dx() != bb.Dx() || ba.Dy() != bb.Dy() {
		return 0, ErrIncompatibleImage
	}
	w, h := ba.Dx(), ba.Dy()
	if w == 0 || h == 0 {
		return 0, ErrIncompatibleImage
	}

	var sum float64
	var blocks int
	for y := 0; y < h; y += blockSize {
		for x := 0; x < w; x += blockSize {
			bw := min(blockSize, w-x)
			bh := min(blockSize, h-y)
			st := sampleBlock(a, b, ba.Min.X+x, ba.Min.Y+y, bb.Min.X+x, bb.Min.Y+y, bw, bh)
			sum += ssimValue(st)
			blocks++
		}
	}
	return sum / float64(blocks), nil
}

// sampleBlock computes means, sample variances and covariance for one window.
// Windows with a single pixel have no sample variance (the N-1 denominator
// would be zero), so their second moments are taken as zero.
func sampleBlock(a, b *image.Gray, ax, ay, bx, by, w, h int) blockStats {
	n := float64(w * h)
	var sum1, sum2 float64
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			sum1 += float64(a.GrayAt(ax+dx, ay+dy).Y)
			sum2 += float64(b.GrayAt(bx+dx, by+dy).Y)
		}
	}
	st := blockStats{mean1: sum1 / n, mean2: sum2 / n}
	if n <= 1 {
		return st
	}

	var ss1, ss2, sc float64
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			d1 := float64(a.GrayAt(ax+dx, ay+dy).Y) - st.mean1
			d2 := float64(b.GrayAt(bx+dx, by+dy).Y) - st.mean2
			ss1 += d1 * d1
			ss2 += d2 * d2
			sc += d1 * d2
		}
	}
	st.var1 = ss1 / (n - 1)
	st.var2 = ss2 / (n - 1)
	st.cov = sc / (n - 1)
	return st
}

func ssimValue(st blockStats) float64 {
	num := (2*st.mean1*st.mean2 + ssimC1) * (2*st.cov + ssimC2)
	den := (st.mean1*st.mean1 + st.mean2*st.mean2 + ssimC1) * (st.var1 + st.var2 + ssimC2)
	return num / den
}
