package classifyactionitems

import (
	"bytes"
	"encoding/json"

	"commerce-workers/internal/models"
)

const (
	actionTrackOrder = "track_order"
	actionCheckout   = "checkout"
)

// Classify maps every object in the payload to exactly one variant, in
// order. Elements that are not objects are dropped.
func Classify(items []json.RawMessage) []models.ActionItem {
	out := make([]models.ActionItem, 0, len(items))
	for _, raw := range items {
		if item, ok := ClassifyOne(raw); ok {
			out = append(out, item)
		}
	}
	return out
}

// ClassifyOne decides the variant from the "action" key: track_order and
// checkout are recognised, anything else (absent, "buy", unknown) is a plain
// product offer. Missing optional fields are never an error. It reports
// false for an element that is not a JSON object.
func ClassifyOne(raw json.RawMessage) (models.ActionItem, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}

	switch text(fields["action"]) {
	case actionTrackOrder:
		return models.TrackRequest{OrderID: text(fields["order_id"])}, true
	case actionCheckout:
		return models.CheckoutOffer{Product: product(fields)}, true
	default:
		return models.ProductOffer{Product: product(fields)}, true
	}
}

func product(fields map[string]json.RawMessage) models.ProductRef {
	p := models.ProductRef{
		ID:          text(fields["id"]),
		Name:        text(fields["name"]),
		Image:       text(fields["image"]),
		ShopName:    text(fields["shop_name"]),
		Description: text(fields["description"]),
	}

	if price := bytes.TrimSpace(fields["price"]); len(price) > 0 && !bytes.Equal(price, []byte("null")) {
		p.Price = models.Price(price)
	}

	var shipping map[string]json.RawMessage
	if err := json.Unmarshal(fields["shipping_details"], &shipping); err == nil && shipping != nil {
		p.ShippingDetails = &models.ShippingDetails{
			Name:    text(shipping["name"]),
			Address: text(shipping["address"]),
		}
	}

	return p
}

// text reads a scalar as a string: strings are unquoted, numbers and
// booleans keep their literal text, null and absent become "".
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}
