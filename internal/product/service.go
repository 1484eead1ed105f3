package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/storefront/internal/model"
)

// Service fetches product records by SKU.
type Service interface {
	Product(ctx context.Context, sku string) (*model.ProductRecord, error)
}

// Poster sends a JSON request body and decodes the JSON response.
// httpclient.Client implements it.
type Poster interface {
	PostJSON(ctx context.Context, path string, body, out any) error
}

// productQuery asks the catalog service for one product view. Fragments
// select the shape-specific fields.
const productQuery = `query GET_PRODUCT_DATA($skus: [String]) {
  products(skus: $skus) {
    __typename
    id
    externalId
    sku
    name
    description
    shortDescription
    url
    urlKey
    inStock
    metaTitle
    metaKeyword
    metaDescription
    addToCartAllowed
    images(roles: []) { url label roles }
    attributes(roles: []) { name label value }
    ... on SimpleProductView {
      price {
        roles
        regular { amount { value currency } }
        final { amount { value currency } }
      }
    }
    ... on ComplexProductView {
      options {
        id title typeName type multiple required
        values { id title ... on ProductViewOptionValueSwatch { type value } inStock }
      }
      priceRange {
        maximum { final { amount { value currency } } regular { amount { value currency } } roles }
        minimum { final { amount { value currency } } regular { amount { value currency } } roles }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type productResponse struct {
	Data struct {
		Products []wireProduct `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// wireProduct is the catalog service shape. It differs from ProductRecord
// only in the simple price, whose amounts are nested one level deeper.
type wireProduct struct {
	model.ProductRecord
	Price *struct {
		Roles   []string          `json:"roles"`
		Regular model.PriceAmount `json:"regular"`
		Final   model.PriceAmount `json:"final"`
	} `json:"price,omitempty"`
}

func (w *wireProduct) record() *model.ProductRecord {
	p := w.ProductRecord
	p.Price = nil
	if w.Price != nil && !p.IsComplex() {
		p.Price = &model.Price{
			Roles:   w.Price.Roles,
			Regular: w.Price.Regular.Amount,
			Final:   w.Price.Final.Amount,
		}
	}
	return &p
}

// HTTPService fetches products from a GraphQL catalog endpoint.
type HTTPService struct {
	client   Poster
	endpoint string
	logger   *slog.Logger
}

// NewHTTPService creates a service posting queries to endpoint.
func NewHTTPService(client Poster, endpoint string, logger *slog.Logger) *HTTPService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPService{client: client, endpoint: endpoint, logger: logger}
}

// Product fetches the product with the given SKU.
func (s *HTTPService) Product(ctx context.Context, sku string) (*model.ProductRecord, error) {
	if sku == "" {
		return nil, ErrMissingSKU
	}

	req := graphQLRequest{
		Query:     productQuery,
		Variables: map[string]any{"skus": []string{sku}},
	}
	var resp productResponse
	if err := s.client.PostJSON(ctx, s.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", sku, err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("catalog service rejected query for %s: %s", sku, strings.Join(msgs, "; "))
	}
	if len(resp.Data.Products) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
	}

	s.logger.Debug("fetched product", "sku", sku)
	return resp.Data.Products[0].record(), nil
}

// CoalescingService shares one in-flight request among concurrent callers
// asking for the same SKU.
type CoalescingService struct {
	next  Service
	group singleflight.Group
}

// NewCoalescingService wraps next.
func NewCoalescingService(next Service) *CoalescingService {
	return &CoalescingService{next: next}
}

// Product fetches the product, joining an in-flight request for the same
// SKU if there is one. SKUs are compared case-insensitively.
func (s *CoalescingService) Product(ctx context.Context, sku string) (*model.ProductRecord, error) {
	v, err, _ := s.group.Do(strings.ToUpper(sku), func() (any, error) {
		return s.next.Product(context.WithoutCancel(ctx), sku)
	})
	if err != nil {
		return nil, err
	}
	p, ok := v.(*model.ProductRecord)
	if !ok {
		return nil, errors.New("unexpected product result type")
	}
	return p, nil
}
