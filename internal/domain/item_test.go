package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestItemIDAcceptsStringAndNumber(t *testing.T) {
	var fromString, fromNumber Item
	if err := json.Unmarshal([]byte(`{"id":"42"}`), &fromString); err != nil {
		t.Fatalf("unmarshal string id: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":42}`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number id: %v", err)
	}
	if fromString.ID != "42" || fromNumber.ID != "42" {
		t.Fatalf("ids = %q, %q, want both 42", fromString.ID, fromNumber.ID)
	}
}

func TestDecodeItemRejectsMissingID(t *testing.T) {
	for _, payload := range []string{`{"title":"x"}`, `{"id":"  "}`, `not json`} {
		_, err := DecodeItem([]byte(payload))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("DecodeItem(%s) error = %v, want ErrMalformedRecord", payload, err)
		}
	}
}

func TestDecodeItemStripsPlaceholderFields(t *testing.T) {
	payload := `{"id":"7","styleCode":"999999-999","publishType":"LEO","price":180,"sizes":["9"]}`

	item, err := DecodeItem([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if !item.IsPlaceholder() {
		t.Fatal("expected placeholder item")
	}
	if item.PublishType != nil || item.Price != nil || item.Sizes != nil || item.SellDate != nil {
		t.Errorf("placeholder kept optional fields: %+v", item)
	}
}

func TestDecodeItemKeepsReleaseFields(t *testing.T) {
	payload := `{"id":"9","styleCode":"CT8012-100","publishType":"FLOW","price":"180","sizes":["M 7 / W 8.5"]}`

	item, err := DecodeItem([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeItem: %v", err)
	}
	if item.PublishType == nil || *item.PublishType != "FLOW" {
		t.Errorf("PublishType = %v", item.PublishType)
	}
	if item.Price == nil || item.Price.String() != "180" {
		t.Errorf("Price = %v", item.Price)
	}
	if len(item.Sizes) != 1 {
		t.Errorf("Sizes = %v", item.Sizes)
	}
}
