// Package transform implements the watermark engine's transform pipeline
// (spec §4.2, component C2): image decode, canonical resize, YCbCr/luma
// conversion, the 2-D Haar wavelet transform, and the 8x8 block DCT/IDCT.
package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/auroraa/watermark-engine/internal/werr"
)

// Decode turns arbitrary image bytes into an 8-bit RGB raster. JPEG and PNG
// use the standard library; WebP and BMP extend the supported input set
// beyond what the teacher's stack offered, using golang.org/x/image, the
// same library the reference pack's image-watermarking code decodes with.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, werr.Decode("transform.Decode", "empty input")
	}

	decoders := []struct {
		name string
		fn   func([]byte) (image.Image, error)
	}{
		{"jpeg", func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{"png", func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{"webp", func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) }},
		{"bmp", func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }},
	}

	var lastErr error
	for _, d := range decoders {
		img, err := d.fn(data)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	return nil, werr.Decode("transform.Decode", "no registered decoder accepted the input: %w", lastErr)
}

// EncodeJPEG re-encodes an image as baseline (non-progressive) JPEG at the
// given quality with the Go standard library's default chroma subsampling.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, werr.Encode("transform.EncodeJPEG", "jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// ResizeCanonical resizes img to a size x size square using area-averaging
// resampling (box filter). This step is load-bearing per spec §4.2: embed
// and extract must perform the identical resize so permuted block
// coordinates line up, which rules out any resampler whose kernel can
// drift between library versions — so the box filter is hand-written
// here rather than delegated to golang.org/x/image/draw (whose kernels
// are not specified precisely enough to guarantee bit-stable averaging
// across versions).
func ResizeCanonical(img image.Image, size int) *image.NRGBA {
	src := toNRGBA(img)
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	scaleX := float64(srcW) / float64(size)
	scaleY := float64(srcH) / float64(size)

	for dy := 0; dy < size; dy++ {
		sy0 := int(float64(dy) * scaleY)
		sy1 := int(float64(dy+1) * scaleY)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		if sy1 > srcH {
			sy1 = srcH
		}
		for dx := 0; dx < size; dx++ {
			sx0 := int(float64(dx) * scaleX)
			sx1 := int(float64(dx+1) * scaleX)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			if sx1 > srcW {
				sx1 = srcW
			}

			var rSum, gSum, bSum, aSum float64
			count := 0
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					off := src.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
					rSum += float64(src.Pix[off])
					gSum += float64(src.Pix[off+1])
					bSum += float64(src.Pix[off+2])
					aSum += float64(src.Pix[off+3])
					count++
				}
			}
			doff := dst.PixOffset(dx, dy)
			if count == 0 {
				count = 1
			}
			dst.Pix[doff] = uint8(rSum / float64(count))
			dst.Pix[doff+1] = uint8(gSum / float64(count))
			dst.Pix[doff+2] = uint8(bSum / float64(count))
			dst.Pix[doff+3] = uint8(aSum / float64(count))
		}
	}
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}

// Luma extracts the Y (luma) plane of an NRGBA image as float32, per the
// ITU-R BT.601 RGB->YCbCr conversion used by image/color.
func Luma(img *image.NRGBA) [][]float32 {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out := make([][]float32, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float32, w)
		for x := 0; x < w; x++ {
			off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b := img.Pix[off], img.Pix[off+1], img.Pix[off+2]
			yy, _, _ := color.RGBToYCbCr(r, g, b)
			out[y][x] = float32(yy)
		}
	}
	return out
}

// CropEven truncates the last row/column of a plane if its dimensions are
// odd, since the Haar DWT requires even dimensions.
func CropEven(plane [][]float32) [][]float32 {
	h := len(plane)
	if h == 0 {
		return plane
	}
	w := len(plane[0])
	evenH, evenW := h-(h%2), w-(w%2)
	if evenH == h && evenW == w {
		return plane
	}
	out := make([][]float32, evenH)
	for y := 0; y < evenH; y++ {
		out[y] = make([]float32, evenW)
		copy(out[y], plane[y][:evenW])
	}
	return out
}

// Recolor reconstructs an RGB image from a (possibly modified) luma plane
// and the original image's Cb/Cr planes, clipping the luma to [0,255]
// before the YCbCr->RGB conversion.
func Recolor(original *image.NRGBA, luma [][]float32) *image.NRGBA {
	bounds := original.Bounds()
	h, w := len(luma), len(luma[0])
	out := image.NewNRGBA(bounds)
	copy(out.Pix, original.Pix)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := original.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b := original.Pix[off], original.Pix[off+1], original.Pix[off+2]
			_, cb, cr := color.RGBToYCbCr(r, g, b)

			yClamped := clampToByte(luma[y][x])
			nr, ng, nb := color.YCbCrToRGB(yClamped, cb, cr)

			doff := out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			out.Pix[doff] = nr
			out.Pix[doff+1] = ng
			out.Pix[doff+2] = nb
			out.Pix[doff+3] = original.Pix[off+3]
		}
	}
	return out
}

func clampToByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
