package services

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

const maxPlanDimension = 2048

// preparePlanImage downscales raster plans larger than maxPlanDimension on
// either side and re-encodes them as JPEG. PDFs, small images and anything
// that does not decode are returned untouched.
func preparePlanImage(data []byte, contentType string) ([]byte, string) {
	if !strings.HasPrefix(contentType, "image/") {
		return data, contentType
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxPlanDimension && cfg.Height <= maxPlanDimension) {
		return data, contentType
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, contentType
	}
	scaled := resize.Thumbnail(maxPlanDimension, maxPlanDimension, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
		return data, contentType
	}
	return buf.Bytes(), "image/jpeg"
}
