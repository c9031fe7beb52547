package site

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/lumen-press/lumen/internal/content"
	"github.com/lumen-press/lumen/internal/sanity"
)

var blockTags = map[string]string{
	"normal":     "p",
	"h1":         "h2",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
}

var decorators = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

// PortableText renders a resolved rich-text tree. Unknown block types are
// skipped. imageURL may be nil, in which case image blocks are dropped.
func PortableText(blocks []any, imageURL func(*sanity.Image) string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		var listTag string
		closeList := func() {
			if listTag != "" {
				h.raw("</" + listTag + ">")
				listTag = ""
			}
		}

		for _, b := range blocks {
			obj, ok := b.(*content.Object)
			if !ok {
				continue
			}
			switch str(obj, "_type") {
			case "block":
				if item := str(obj, "listItem"); item != "" {
					tag := "ul"
					if item == "number" {
						tag = "ol"
					}
					if tag != listTag {
						closeList()
						h.raw("<" + tag + ">")
						listTag = tag
					}
					h.raw("<li>")
					spans(h, obj)
					h.raw("</li>")
					continue
				}
				closeList()
				tag, ok := blockTags[str(obj, "style")]
				if !ok {
					tag = "p"
				}
				h.raw("<" + tag + ">")
				spans(h, obj)
				h.raw("</" + tag + ">")
			case "image":
				closeList()
				if imageURL == nil {
					continue
				}
				img := imageFromObject(obj)
				src := imageURL(img)
				if src == "" {
					continue
				}
				h.raw("<figure><img")
				h.attr("src", src)
				h.attr("alt", str(obj, "alt"))
				h.raw(` loading="lazy">`)
				if caption := str(obj, "caption"); caption != "" {
					h.raw("<figcaption>")
					h.text(caption)
					h.raw("</figcaption>")
				}
				h.raw("</figure>")
			case "code":
				closeList()
				h.raw("<pre><code")
				if lang := str(obj, "language"); lang != "" {
					h.attr("class", "language-"+lang)
				}
				h.raw(">")
				h.text(str(obj, "code"))
				h.raw("</code></pre>")
			}
		}
		closeList()
	})
}

// spans writes the children of a block with their marks applied.
func spans(h *htmlWriter, block *content.Object) {
	links := map[string]string{}
	if defs, ok := get(block, "markDefs").([]any); ok {
		for _, d := range defs {
			if def, ok := d.(*content.Object); ok && str(def, "_type") == "link" {
				links[str(def, "_key")] = str(def, "href")
			}
		}
	}

	children, _ := get(block, "children").([]any)
	for _, c := range children {
		span, ok := c.(*content.Object)
		if !ok {
			continue
		}
		marks, _ := get(span, "marks").([]any)
		var closers []string
		for _, m := range marks {
			name, _ := m.(string)
			if tag, ok := decorators[name]; ok {
				h.raw("<" + tag + ">")
				closers = append(closers, "</"+tag+">")
			} else if u, ok := links[name]; ok {
				h.raw("<a")
				h.href(u)
				if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
					h.raw(` rel="noopener"`)
				}
				h.raw(">")
				closers = append(closers, "</a>")
			}
		}
		h.text(str(span, "text"))
		for i := len(closers) - 1; i >= 0; i-- {
			h.raw(closers[i])
		}
	}
}

func imageFromObject(obj *content.Object) *sanity.Image {
	img := &sanity.Image{}
	if asset, ok := get(obj, "asset").(*content.Object); ok {
		img.Asset = &sanity.ImageAsset{Ref: str(asset, "_ref")}
	}
	if crop, ok := get(obj, "crop").(*content.Object); ok {
		img.Crop = &sanity.Crop{
			Top:    num(crop, "top"),
			Bottom: num(crop, "bottom"),
			Left:   num(crop, "left"),
			Right:  num(crop, "right"),
		}
	}
	return img
}

func get(obj *content.Object, key string) any {
	v, _ := obj.Get(key)
	return v
}

func str(obj *content.Object, key string) string {
	s, _ := get(obj, key).(string)
	return s
}

func num(obj *content.Object, key string) float64 {
	switch n := get(obj, key).(type) {
	case float64:
		return n
	case interface{ Float64() (float64, error) }:
		f, _ := n.Float64()
		return f
	}
	return 0
}
