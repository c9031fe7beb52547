package sanity

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var dimensionsPattern = regexp.MustCompile(`-(\d+)x(\d+)-`)

// ImageDimensions reads the pixel size of img. The asset reference encodes it
// as image-<id>-<w>x<h>-<format>; otherwise asset metadata is used, and when
// neither is available the result is 0x0 with aspect ratio 1.
func ImageDimensions(img *Image) Dimensions {
	if img == nil || img.Asset == nil || img.Asset.Ref == "" {
		return Dimensions{AspectRatio: 1}
	}
	if m := dimensionsPattern.FindStringSubmatch(img.Asset.Ref); m != nil {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		d := Dimensions{Width: w, Height: h, AspectRatio: 1}
		if h != 0 {
			d.AspectRatio = float64(w) / float64(h)
		}
		return d
	}
	if md := img.Asset.Metadata; md != nil && md.Dimensions != nil {
		return *md.Dimensions
	}
	return Dimensions{AspectRatio: 1}
}

// ImageURLBuilder builds CDN URLs for image assets of one project. Builders
// are values; each method returns a modified copy.
type ImageURLBuilder struct {
	projectID string
	dataset   string
	baseURL   string
	image     *Image
	width     int
	height    int
	quality   int
	auto      string
	fit       string
}

// NewImageURLBuilder returns a builder for the project and dataset.
func NewImageURLBuilder(projectID, dataset string) ImageURLBuilder {
	return ImageURLBuilder{projectID: projectID, dataset: dataset, baseURL: "https://cdn.sanity.io"}
}

// Image selects the source image.
func (b ImageURLBuilder) Image(img *Image) ImageURLBuilder {
	b.image = img
	return b
}

// Width sets the output width in pixels.
func (b ImageURLBuilder) Width(w int) ImageURLBuilder {
	b.width = w
	return b
}

// Height sets the output height in pixels.
func (b ImageURLBuilder) Height(h int) ImageURLBuilder {
	b.height = h
	return b
}

// Quality sets the compression quality, 0 to 100.
func (b ImageURLBuilder) Quality(q int) ImageURLBuilder {
	b.quality = q
	return b
}

// Auto sets automatic output tuning, usually "format".
func (b ImageURLBuilder) Auto(mode string) ImageURLBuilder {
	b.auto = mode
	return b
}

// Fit sets how the image is fitted to the requested size.
func (b ImageURLBuilder) Fit(mode string) ImageURLBuilder {
	b.fit = mode
	return b
}

// URL renders the image URL, or "" when no usable asset is selected.
func (b ImageURLBuilder) URL() string {
	if b.image == nil || b.image.Asset == nil {
		return ""
	}
	file, ok := assetFile(b.image.Asset.Ref)
	if !ok {
		return ""
	}

	u := fmt.Sprintf("%s/images/%s/%s/%s", b.baseURL, b.projectID, b.dataset, file)

	q := url.Values{}
	if rect, ok := cropRect(b.image); ok {
		q.Set("rect", rect)
	}
	if b.width > 0 {
		q.Set("w", strconv.Itoa(b.width))
	}
	if b.height > 0 {
		q.Set("h", strconv.Itoa(b.height))
	}
	if b.quality > 0 {
		q.Set("q", strconv.Itoa(b.quality))
	}
	if b.fit != "" {
		q.Set("fit", b.fit)
	}
	if b.auto != "" {
		q.Set("auto", b.auto)
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}

// assetFile turns "image-<id>-<w>x<h>-<ext>" into "<id>-<w>x<h>.<ext>".
func assetFile(ref string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return "", false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 || i == len(rest)-1 {
		return "", false
	}
	return rest[:i] + "." + rest[i+1:], true
}

func cropRect(img *Image) (string, bool) {
	c := img.Crop
	if c == nil || (c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0) {
		return "", false
	}
	d := ImageDimensions(img)
	if d.Width == 0 || d.Height == 0 {
		return "", false
	}
	left := int(math.Round(c.Left * float64(d.Width)))
	top := int(math.Round(c.Top * float64(d.Height)))
	w := int(math.Round(float64(d.Width)*(1-c.Left-c.Right)))
	h := int(math.Round(float64(d.Height)*(1-c.Top-c.Bottom)))
	if w <= 0 || h <= 0 {
		return "", false
	}
	return fmt.Sprintf("%d,%d,%d,%d", left, top, w, h), true
}
