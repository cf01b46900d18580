// Package types provides core data types for the leaf collection tracker.
package types

// Customer represents a tea supplier who delivers leaf to the collection point.
type Customer struct {
	// ID is the stable primary key assigned by the store.
	ID int64 `json:"customer_id"`

	// Name is the customer's display name. Required, never empty.
	Name string `json:"name"`

	// Contact is an optional phone number or similar.
	Contact string `json:"contact,omitempty"`

	// Address is optional.
	Address string `json:"address,omitempty"`
}
