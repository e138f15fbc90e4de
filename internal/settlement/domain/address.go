package domain

// Address is a value-type snapshot copied from the address book at order
// time. Later edits to the address book never alter historical orders.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Addresses struct {
	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`
}
