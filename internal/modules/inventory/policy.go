package inventory

import "github.com/georgemunganga/stocksync/internal/modules/storefront"

// DecidePolicy maps available units to an inventory policy: any stock keeps the
// variant orderable, none blocks it. A configured colour override wins over stock.
func DecidePolicy(units int, colorName string, overrides map[string]storefront.InventoryPolicy) storefront.InventoryPolicy {
	if p, ok := overrides[colorName]; ok && p.Valid() {
		return p
	}
	if units > 0 {
		return storefront.PolicyContinue
	}
	return storefront.PolicyDeny
}
