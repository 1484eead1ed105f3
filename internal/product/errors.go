package product

import "errors"

// Product errors.
//
// Design decision: Sentinel errors let the lifecycle tell "no product"
// apart from transport failures with errors.Is while keeping messages
// readable in the render report.
var (
	// ErrMissingSKU is returned when the document carries no sku metadata.
	// The SKU is the only required field of a product record.
	ErrMissingSKU = errors.New("missing product sku")

	// ErrProductNotFound is returned when the product service knows no
	// product with the requested SKU.
	ErrProductNotFound = errors.New("product not found")

	// ErrNoVariantPrices is returned when no variant row carries a
	// parseable final price, so no price range can be derived.
	ErrNoVariantPrices = errors.New("no variant prices")

	// ErrMixedCurrency is returned in strict mode when variants use more
	// than one currency.
	ErrMixedCurrency = errors.New("variants use mixed currencies")
)
