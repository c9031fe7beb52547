package sanity

import (
	"time"

	"github.com/lumen-press/lumen/internal/content"
)

// Slug is a URL slug field.
type Slug struct {
	Type    string `json:"_type,omitempty"`
	Current string `json:"current"`
}

// ImageAsset references an uploaded image.
type ImageAsset struct {
	Ref      string         `json:"_ref"`
	Type     string         `json:"_type,omitempty"`
	Metadata *AssetMetadata `json:"metadata,omitempty"`
}

// AssetMetadata carries what the CMS knows about an asset.
type AssetMetadata struct {
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Dimensions of an image in pixels.
type Dimensions struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
}

// Hotspot is the focal point used for cropping.
type Hotspot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Crop is the fraction trimmed from each edge.
type Crop struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Image is an image field with optional metadata.
type Image struct {
	Type    string            `json:"_type,omitempty"`
	Asset   *ImageAsset       `json:"asset,omitempty"`
	Alt     content.Localized `json:"alt"`
	Caption content.Localized `json:"caption"`
	Hotspot *Hotspot          `json:"hotspot,omitempty"`
	Crop    *Crop             `json:"crop,omitempty"`
}

// SocialLinks of an author.
type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Author document.
type Author struct {
	ID          string            `json:"_id"`
	Type        string            `json:"_type,omitempty"`
	Name        content.Localized `json:"name"`
	Slug        *Slug             `json:"slug,omitempty"`
	Bio         content.Localized `json:"bio"`
	Image       *Image            `json:"image,omitempty"`
	SocialLinks *SocialLinks      `json:"socialLinks,omitempty"`
}

// Category document.
type Category struct {
	ID          string            `json:"_id"`
	Type        string            `json:"_type,omitempty"`
	Title       content.Localized `json:"title"`
	Slug        Slug              `json:"slug"`
	Description content.Localized `json:"description"`
}

// SEO metadata attached to a post.
type SEO struct {
	MetaTitle       content.Localized `json:"metaTitle"`
	MetaDescription content.Localized `json:"metaDescription"`
	Keywords        []string          `json:"keywords,omitempty"`
	OGImage         *Image            `json:"ogImage,omitempty"`
}

// BlogPost is a full post document.
type BlogPost struct {
	ID            string            `json:"_id"`
	Type          string            `json:"_type,omitempty"`
	CreatedAt     time.Time         `json:"_createdAt"`
	UpdatedAt     time.Time         `json:"_updatedAt"`
	Title         content.Localized `json:"title"`
	Slug          Slug              `json:"slug"`
	Excerpt       content.Localized `json:"excerpt"`
	Content       content.Localized `json:"content"`
	PublishedAt   time.Time         `json:"publishedAt"`
	Author        *Author           `json:"author,omitempty"`
	Categories    []Category        `json:"categories,omitempty"`
	FeaturedImage *Image            `json:"featuredImage,omitempty"`
	SEO           *SEO              `json:"seo,omitempty"`
	Featured      bool              `json:"featured,omitempty"`
}

// BlogPostPreview is the trimmed post used in list views.
type BlogPostPreview struct {
	ID            string            `json:"_id"`
	Title         content.Localized `json:"title"`
	Slug          Slug              `json:"slug"`
	Excerpt       content.Localized `json:"excerpt"`
	PublishedAt   time.Time         `json:"publishedAt"`
	FeaturedImage *Image            `json:"featuredImage,omitempty"`
	Author        *Author           `json:"author,omitempty"`
	Categories    []Category        `json:"categories,omitempty"`
}
