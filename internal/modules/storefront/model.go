package storefront

// InventoryPolicy controls whether a variant stays purchasable once stock runs out.
type InventoryPolicy string

const (
	// PolicyContinue keeps the variant orderable (oversell allowed).
	PolicyContinue InventoryPolicy = "continue"
	// PolicyDeny blocks purchase when stock is exhausted.
	PolicyDeny InventoryPolicy = "deny"
)

// Valid reports whether p is one of the two known policies.
func (p InventoryPolicy) Valid() bool {
	return p == PolicyContinue || p == PolicyDeny
}

// Product is a transient local copy of a storefront product. It is only valid
// between FindProductsByTitle and the SaveProduct call that writes it back.
type Product struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	Variants []*Variant `json:"variants"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	ID              int64           `json:"id"`
	Option1         string          `json:"option1"` // size
	Option2         string          `json:"option2"` // colour name
	InventoryPolicy InventoryPolicy `json:"inventory_policy"`
}
