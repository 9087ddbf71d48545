package domain

// Address is embedded in the customer record; updates replace it as a
// whole rather than field by field.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	ZipCode     string `json:"zipCode"`
}

// Customer id is assigned on creation and immutable afterwards.
type Customer struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	Email     string   `json:"email"`
	Address   *Address `json:"address,omitempty"`
}

// Merge applies the non-blank fields of in onto c, preserving stored
// values otherwise. A blank field is indistinguishable from an omitted
// one under this policy, so fields cannot be cleared through an update.
func (c *Customer) Merge(in Customer) {
	if in.FirstName != "" {
		c.FirstName = in.FirstName
	}
	if in.LastName != "" {
		c.LastName = in.LastName
	}
	if in.Email != "" {
		c.Email = in.Email
	}
	if in.Address != nil {
		c.Address = in.Address
	}
}
