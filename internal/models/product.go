package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ProductRef is an item as described by the assistant payload or the catalog.
type ProductRef struct {
	ID              string           `json:"id,omitempty"`
	Name            string           `json:"name"`
	Image           string           `json:"image,omitempty"`
	Price           Price            `json:"price,omitempty"`
	ShopName        string           `json:"shop_name,omitempty"`
	Description     string           `json:"description,omitempty"`
	ShippingDetails *ShippingDetails `json:"shipping_details,omitempty"`
}

// ShippingDetails is carried on checkout offers and copied onto the order item.
type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ShopOrDefault returns the shop name, or fallback when none was given.
func (p ProductRef) ShopOrDefault(fallback string) string {
	if p.ShopName == "" {
		return fallback
	}
	return p.ShopName
}

// Price holds the raw JSON token of a price exactly as it was written,
// either a number (10, 12.5) or a string ("$10.00"). It is never normalized.
type Price string

func NumericPrice(v float64) Price {
	return Price(strconv.FormatFloat(v, 'f', -1, 64))
}

func TextPrice(s string) Price {
	b, _ := json.Marshal(s)
	return Price(b)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(p)) {
		return []byte(p), nil
	}
	return json.Marshal(string(p))
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	*p = Price(data)
	return nil
}

// String returns the display text: strings unquoted, numbers as written.
func (p Price) String() string {
	var s string
	if err := json.Unmarshal([]byte(p), &s); err == nil {
		return s
	}
	return string(p)
}
