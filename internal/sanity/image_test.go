package sanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageDimensions(t *testing.T) {
	tests := []struct {
		name  string
		image *Image
		want  Dimensions
	}{
		{
			name:  "nil image",
			image: nil,
			want:  Dimensions{AspectRatio: 1},
		},
		{
			name:  "no asset ref",
			image: &Image{Asset: &ImageAsset{}},
			want:  Dimensions{AspectRatio: 1},
		},
		{
			name:  "from ref",
			image: &Image{Asset: &ImageAsset{Ref: "image-abc123-1200x800-jpg"}},
			want:  Dimensions{Width: 1200, Height: 800, AspectRatio: 1.5},
		},
		{
			name: "from metadata",
			image: &Image{Asset: &ImageAsset{
				Ref:      "image-abc123",
				Metadata: &AssetMetadata{Dimensions: &Dimensions{Width: 10, Height: 20, AspectRatio: 0.5}},
			}},
			want: Dimensions{Width: 10, Height: 20, AspectRatio: 0.5},
		},
		{
			name:  "unparseable ref without metadata",
			image: &Image{Asset: &ImageAsset{Ref: "file-xyz"}},
			want:  Dimensions{AspectRatio: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageDimensions(tt.image))
		})
	}
}

func TestImageURLBuilder(t *testing.T) {
	img := &Image{Asset: &ImageAsset{Ref: "image-abc123-1200x800-png"}}
	b := NewImageURLBuilder("proj", "production")

	assert.Equal(t,
		"https://cdn.sanity.io/images/proj/production/abc123-1200x800.png",
		b.Image(img).URL())

	assert.Equal(t,
		"https://cdn.sanity.io/images/proj/production/abc123-1200x800.png?auto=format&h=400&w=800",
		b.Image(img).Width(800).Height(400).Auto("format").URL())

	assert.Equal(t,
		"https://cdn.sanity.io/images/proj/production/abc123-1200x800.png?fit=crop&q=75",
		b.Image(img).Fit("crop").Quality(75).URL())
}

func TestImageURLBuilder_Crop(t *testing.T) {
	img := &Image{
		Asset: &ImageAsset{Ref: "image-abc-1000x500-jpg"},
		Crop:  &Crop{Left: 0.1, Right: 0.1, Top: 0.2, Bottom: 0},
	}
	got := NewImageURLBuilder("p", "d").Image(img).URL()
	assert.Equal(t, "https://cdn.sanity.io/images/p/d/abc-1000x500.jpg?rect=100%2C100%2C800%2C400", got)
}

func TestImageURLBuilder_NoAsset(t *testing.T) {
	b := NewImageURLBuilder("p", "d")
	assert.Empty(t, b.URL())
	assert.Empty(t, b.Image(&Image{}).URL())
	assert.Empty(t, b.Image(&Image{Asset: &ImageAsset{Ref: "file-abc-pdf"}}).URL())
}
