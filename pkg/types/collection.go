package types

// Collection represents one weighed delivery event by a customer on a given date.
type Collection struct {
	// ID is the stable primary key assigned by the store.
	ID int64 `json:"id"`

	// Date is the calendar day of the delivery. No time component.
	Date Date `json:"date"`

	// CustomerID references the delivering customer. Must resolve to an
	// existing customer when the collection is created.
	CustomerID int64 `json:"customer_id"`

	// CustomerName is the delivering customer's name, resolved through
	// CustomerID at read time. Display convenience, not source of truth.
	CustomerName string `json:"customer_name"`

	// Weight is the delivered leaf weight in kilograms. Strictly positive.
	Weight float64 `json:"weight"`
}
