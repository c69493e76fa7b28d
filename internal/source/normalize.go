package source

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dropwatch/internal/domain"
)

type thread struct {
	ID       domain.ItemID  `json:"id"`
	SEOTitle string         `json:"seoTitle"`
	SEOSlug  string         `json:"seoSlug"`
	ImageURL string         `json:"imageUrl"`
	Product  *threadProduct `json:"product"`
}

type threadProduct struct {
	Style         string `json:"style"`
	ColorCode     string `json:"colorCode"`
	StartSellDate string `json:"startSellDate"`
	PublishType   string `json:"publishType"`
	Price         *struct {
		CurrentRetailPrice json.Number `json:"currentRetailPrice"`
	} `json:"price"`
	SKUs []struct {
		LocalizedSize string `json:"localizedSize"`
	} `json:"skus"`
}

// Batch is the result of normalizing one snapshot. Rejected holds records
// that were dropped; Warnings holds fields that were ignored on kept records.
type Batch struct {
	Items    []domain.Item
	Rejected []error
	Warnings []error
}

var sellDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func Normalize(snapshot *Snapshot) Batch {
	var batch Batch
	if snapshot == nil {
		return batch
	}
	for i, raw := range snapshot.Threads {
		item, warnings, err := normalizeThread(raw)
		if err != nil {
			batch.Rejected = append(batch.Rejected, fmt.Errorf("thread %d: %w", i, err))
			continue
		}
		batch.Items = append(batch.Items, item)
		batch.Warnings = append(batch.Warnings, warnings...)
	}
	return batch
}

func normalizeThread(raw json.RawMessage) (domain.Item, []error, error) {
	var t thread
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.Item{}, nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if t.ID == "" {
		return domain.Item{}, nil, fmt.Errorf("%w: missing id", domain.ErrMalformedRecord)
	}
	if t.Product == nil || t.Product.Style == "" || t.Product.ColorCode == "" {
		return domain.Item{}, nil, fmt.Errorf("%w: thread %s has no style code", domain.ErrMalformedRecord, t.ID)
	}

	item := domain.Item{
		ID:        t.ID,
		Title:     strings.TrimSpace(t.SEOTitle),
		Slug:      strings.TrimSpace(t.SEOSlug),
		ImageURL:  strings.TrimSpace(t.ImageURL),
		StyleCode: t.Product.Style + "-" + t.Product.ColorCode,
	}
	if item.IsPlaceholder() {
		return item, nil, nil
	}

	var warnings []error
	p := t.Product
	if p.StartSellDate != "" {
		sellDate, err := parseSellDate(p.StartSellDate)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("thread %s: ignoring startSellDate: %w", t.ID, err))
		} else {
			item.SellDate = &sellDate
		}
	}
	if p.PublishType != "" {
		publishType := p.PublishType
		item.PublishType = &publishType
	}
	if p.Price != nil && p.Price.CurrentRetailPrice != "" {
		price := p.Price.CurrentRetailPrice
		item.Price = &price
	}
	for _, sku := range p.SKUs {
		if size := strings.TrimSpace(sku.LocalizedSize); size != "" {
			item.Sizes = append(item.Sizes, size)
		}
	}
	return item, warnings, nil
}

func parseSellDate(value string) (time.Time, error) {
	for _, layout := range sellDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
