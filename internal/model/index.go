package model

// IndexRecord is one row of a JSON-backed index such as query-index.json.
type IndexRecord map[string]any

// IndexPage is a single page of an index as returned by the content
// service: `{"limit":..,"offset":..,"total":..,"data":[...]}`.
type IndexPage struct {
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
	Data   []IndexRecord `json:"data"`
}

// IsLast reports whether the server says this page ends the index.
func (p *IndexPage) IsLast() bool {
	return p.Limit+p.Offset == p.Total
}

// IndexEntry is the accumulated snapshot of an index. Entries are never
// mutated once published; every successful page load produces a new entry
// whose Data extends the previous one.
type IndexEntry struct {
	// Name is the index name, e.g. "query-index" or "products".
	Name string `json:"name"`

	// Data holds all records loaded so far in server order.
	Data []IndexRecord `json:"data"`

	// Offset is the next page boundary to request.
	Offset int `json:"offset"`

	// Complete is true once the server reported the last page.
	Complete bool `json:"complete"`
}

// NewIndexEntry returns the zero state for an index.
func NewIndexEntry(name string) *IndexEntry {
	return &IndexEntry{
		Name: name,
		Data: []IndexRecord{},
	}
}

// Len returns the number of records loaded so far.
func (e *IndexEntry) Len() int {
	return len(e.Data)
}
