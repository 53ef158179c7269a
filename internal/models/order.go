package models

import "time"

const StatusPreparingForShipment = "Preparing for Shipment"

// Order is created once by a completed payment and never modified afterwards.
type Order struct {
	ID        string     `json:"id"`
	Item      ProductRef `json:"item"`
	CreatedAt time.Time  `json:"createdAt"`
	Status    string     `json:"status"`
}

// PaymentDetails are the dummy card fields collected by the checkout form.
// They are accepted as-is and never validated, stored or forwarded.
type PaymentDetails struct {
	CardNumber string `json:"cardNumber,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	CVC        string `json:"cvc,omitempty"`
	Email      string `json:"email,omitempty"`
}
