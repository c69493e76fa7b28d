package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SentinelStyleCode marks a catalog thread that is not a real product release.
const SentinelStyleCode = "999999-999"

// ItemID is the catalog identifier of an item. The source may send it as a
// JSON string or a JSON number; it is always carried as a string.
type ItemID string

func (id ItemID) String() string {
	return string(id)
}

func (id *ItemID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode item id: %w", err)
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or a number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// Item is the canonical record flowing through the pipeline. Only ID takes
// part in the admission decision.
type Item struct {
	ID          ItemID       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Slug        string       `json:"slug,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	StyleCode   string       `json:"styleCode,omitempty"`
	PublishType *string      `json:"publishType,omitempty"`
	SellDate    *time.Time   `json:"sellDate,omitempty"`
	Price       *json.Number `json:"price,omitempty"`
	Sizes       []string     `json:"sizes,omitempty"`
}

// IsPlaceholder reports whether the item carries the sentinel style code.
func (i Item) IsPlaceholder() bool {
	return i.StyleCode == SentinelStyleCode
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.ID.String()) == "" {
		return fmt.Errorf("%w: item id is required", ErrMalformedRecord)
	}
	return nil
}

// DecodeItem parses a queue payload into a validated Item.
func DecodeItem(payload []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(payload, &item); err != nil {
		return Item{}, fmt.Errorf("%w: failed to unmarshal item: %v", ErrMalformedRecord, err)
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	if item.IsPlaceholder() {
		item.PublishType = nil
		item.SellDate = nil
		item.Price = nil
		item.Sizes = nil
	}
	return item, nil
}
