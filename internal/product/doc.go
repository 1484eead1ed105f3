// Package product builds ProductRecord values, either from product markup
// embedded in a page or from the catalog service.
//
// Normalizer reads the authored tables of a product page. The presence of a
// .product-variants region alone decides the record shape: Complex records
// get options and a price range computed across variants, Simple records get
// a single price from metadata.
//
// HTTPService queries the catalog service over GraphQL; CoalescingService
// wraps any Service so that concurrent lookups of one SKU share a request.
package product
