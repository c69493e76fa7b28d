package notification

import (
	"context"
	"strings"
	"time"

	"dropwatch/internal/domain"
)

type Options struct {
	URLBase       string
	DefaultColor  int
	DefaultTitle  string
	DefaultImage  string
	SizeSeparator string
	SizeGender    Gender
	FooterPrefix  string
	Store         Store
}

type Formatter struct {
	opts   Options
	prober Prober
	now    func() time.Time
}

func NewFormatter(opts Options, prober Prober) *Formatter {
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "Title Unavailable"
	}
	if opts.SizeSeparator == "" {
		opts.SizeSeparator = ", "
	}
	return &Formatter{
		opts:   opts,
		prober: prober,
		now:    time.Now,
	}
}

// Format resolves item into a payload. Placeholder items only get their
// display metadata.
func (f *Formatter) Format(ctx context.Context, item domain.Item) Payload {
	return Build(f.Fields(ctx, item), f.opts.FooterPrefix, f.now())
}

func (f *Formatter) Fields(ctx context.Context, item domain.Item) Fields {
	fields := Fields{
		Color: f.opts.DefaultColor,
		Title: strings.TrimSpace(item.Title),
	}
	if fields.Title == "" {
		fields.Title = f.opts.DefaultTitle
	}

	if f.opts.URLBase != "" && item.Slug != "" {
		productURL := f.opts.URLBase + item.Slug
		if f.prober.Reachable(ctx, productURL) {
			fields.URL = productURL
		}
	}
	if item.ImageURL != "" && f.prober.Reachable(ctx, item.ImageURL, ImageContentTypes...) {
		fields.ImageURL = item.ImageURL
	} else {
		fields.ImageURL = f.opts.DefaultImage
	}

	if item.IsPlaceholder() {
		return fields
	}

	fields.SKU = item.StyleCode
	fields.SellDate = item.SellDate
	if item.PublishType != nil {
		fields.PublishType = *item.PublishType
	}
	if item.Price != nil {
		fields.Price = item.Price.String()
	}
	if len(item.Sizes) > 0 {
		groups := ParseSizes(f.opts.Store, item.Sizes)
		fields.Sizes = FormatSizes(groups, f.opts.SizeGender, f.opts.SizeSeparator)
	}
	return fields
}
