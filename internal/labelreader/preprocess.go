package labelreader

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"slices"

	"github.com/disintegration/imaging"
)

// closeKernel is the side of the square structuring element used to close
// gaps in the binarized label
const closeKernel = 1

// Preprocess decodes a label photo and prepares it for text extraction:
// grayscale, 3x3 median denoise, Otsu binarization and a morphological close.
func Preprocess(r io.Reader) (*image.Gray, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	gray := toGray(imaging.Grayscale(img))
	denoised := medianBlur3(gray)
	binary := threshold(denoised, otsuThreshold(denoised.Pix))
	return morphClose(binary, closeKernel), nil
}

// EncodePNG encodes the preprocessed image for an extractor
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			// imaging.Grayscale leaves R, G and B equal
			dst.Pix[y*dst.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return dst
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// medianBlur3 replaces every pixel with the median of its 3x3 neighbourhood,
// replicating edge pixels
func medianBlur3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	window := make([]uint8, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, src.Pix[clamp(y+dy, 0, h-1)*src.Stride+clamp(x+dx, 0, w-1)])
				}
			}
			slices.Sort(window)
			dst.Pix[y*dst.Stride+x] = window[4]
		}
	}
	return dst
}

// otsuThreshold picks the level that maximizes between-class variance
func otsuThreshold(pix []uint8) uint8 {
	var hist [256]int
	for _, p := range pix {
		hist[p]++
	}

	total := len(pix)
	var sum float64
	for level, count := range hist {
		sum += float64(level * count)
	}

	var (
		sumBackground float64
		background    int
		best          = -1.0
		level         int
	)
	for t, count := range hist {
		background += count
		if background == 0 {
			continue
		}
		foreground := total - background
		if foreground == 0 {
			break
		}
		sumBackground += float64(t * count)
		meanB := sumBackground / float64(background)
		meanF := (sum - sumBackground) / float64(foreground)
		between := float64(background) * float64(foreground) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// threshold maps pixels above t to white and the rest to black
func threshold(src *image.Gray, t uint8) *image.Gray {
	dst := image.NewGray(src.Rect)
	for i, p := range src.Pix {
		if p > t {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// morphClose dilates then erodes with a k x k square element
func morphClose(src *image.Gray, k int) *image.Gray {
	if k <= 1 {
		return src
	}
	return morph(morph(src, k, brighter), k, darker)
}

func brighter(a, b uint8) uint8 { return max(a, b) }

func darker(a, b uint8) uint8 { return min(a, b) }

func morph(src *image.Gray, k int, pick func(a, b uint8) uint8) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	r := k / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.Pix[y*src.Stride+x]
			for dy := -r; dy < k-r; dy++ {
				for dx := -r; dx < k-r; dx++ {
					v = pick(v, src.Pix[clamp(y+dy, 0, h-1)*src.Stride+clamp(x+dx, 0, w-1)])
				}
			}
			dst.Pix[y*dst.Stride+x] = v
		}
	}
	return dst
}
