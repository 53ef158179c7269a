package models

import (
	"errors"
	"fmt"
)

type Variant string

const (
	VariantBuy      Variant = "buy"
	VariantCheckout Variant = "checkout"
	VariantTrack    Variant = "track"
)

var (
	ErrUnknownVariant = errors.New("UNKNOWN_VARIANT")
	ErrMissingProduct = errors.New("INVALID_INPUT")
)

// ActionItem is one classified element of an assistant payload. The set of
// implementations is closed: ProductOffer, CheckoutOffer and TrackRequest.
type ActionItem interface {
	Variant() Variant
	actionItem()
}

// ProductOffer is a plain "buy" offer.
type ProductOffer struct {
	Product ProductRef
}

// CheckoutOffer is an offer the assistant presents as ready for payment.
type CheckoutOffer struct {
	Product ProductRef
}

// TrackRequest asks for an order lookup. OrderID may be empty.
type TrackRequest struct {
	OrderID string
}

func (ProductOffer) Variant() Variant  { return VariantBuy }
func (CheckoutOffer) Variant() Variant { return VariantCheckout }
func (TrackRequest) Variant() Variant  { return VariantTrack }

func (ProductOffer) actionItem()  {}
func (CheckoutOffer) actionItem() {}
func (TrackRequest) actionItem()  {}

// OfferedProduct returns the product of an offer variant.
func OfferedProduct(item ActionItem) (ProductRef, bool) {
	switch v := item.(type) {
	case ProductOffer:
		return v.Product, true
	case CheckoutOffer:
		return v.Product, true
	default:
		return ProductRef{}, false
	}
}

// ItemView is the wire form of an ActionItem.
type ItemView struct {
	Variant Variant     `json:"variant"`
	Product *ProductRef `json:"product,omitempty"`
	OrderID *string     `json:"orderId,omitempty"`
}

func ViewOf(item ActionItem) ItemView {
	switch v := item.(type) {
	case ProductOffer:
		p := v.Product
		return ItemView{Variant: VariantBuy, Product: &p}
	case CheckoutOffer:
		p := v.Product
		return ItemView{Variant: VariantCheckout, Product: &p}
	case TrackRequest:
		id := v.OrderID
		return ItemView{Variant: VariantTrack, OrderID: &id}
	}
	return ItemView{}
}

// ActionItem converts the view back into its variant.
func (v ItemView) ActionItem() (ActionItem, error) {
	switch v.Variant {
	case VariantBuy, VariantCheckout:
		if v.Product == nil {
			return nil, fmt.Errorf("%w: %s item without product", ErrMissingProduct, v.Variant)
		}
		if v.Variant == VariantCheckout {
			return CheckoutOffer{Product: *v.Product}, nil
		}
		return ProductOffer{Product: *v.Product}, nil
	case VariantTrack:
		id := ""
		if v.OrderID != nil {
			id = *v.OrderID
		}
		return TrackRequest{OrderID: id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v.Variant)
	}
}
