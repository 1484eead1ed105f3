package product

import (
	"strings"

	"github.com/nao1215/storefront/internal/model"
)

// valueRowMarker is the first cell of an option value row. Any other
// non-empty first cell starts a new option group.
const valueRowMarker = "option"

// defaultValueType is used when a value row has no type cell.
const defaultValueType = "TEXT"

// rowKind is the classification of one option row.
type rowKind int

const (
	rowBlank rowKind = iota
	rowGroup
	rowValue
)

// classifyOptionRow decides what an option row is from its cells.
func classifyOptionRow(cells []string) rowKind {
	if len(cells) == 0 || strings.Join(cells, "") == "" {
		return rowBlank
	}
	if strings.EqualFold(cells[0], valueRowMarker) {
		return rowValue
	}
	return rowGroup
}

// DropReason explains why a row did not make it into the options.
type DropReason string

const (
	// DropNoGroup marks a value row that came before any group row.
	DropNoGroup DropReason = "value row before any option group"

	// DropNoValueID marks a value row with an empty value id.
	DropNoValueID DropReason = "value row without value id"

	// DropBlank marks an empty row.
	DropBlank DropReason = "blank row"
)

// DroppedRow records a row the parser discarded.
type DroppedRow struct {
	Index  int
	Reason DropReason
}

// optionParser groups option rows. It is either waiting for the first
// group or collecting values into the most recent group.
type optionParser struct {
	options []model.Option
	dropped []DroppedRow
	row     int
}

// feed consumes one row.
//
// Group rows are [id, title, typeName, type, multiple, required].
// Value rows are ["option", id, title, value, selected, inStock, type].
func (p *optionParser) feed(cells []string) {
	defer func() { p.row++ }()

	switch classifyOptionRow(cells) {
	case rowBlank:
		p.dropped = append(p.dropped, DroppedRow{Index: p.row, Reason: DropBlank})

	case rowGroup:
		p.options = append(p.options, model.Option{
			ID:       cell(cells, 0),
			Title:    cell(cells, 1),
			TypeName: cell(cells, 2),
			Type:     cell(cells, 3),
			Multiple: parseFlag(cell(cells, 4)),
			Required: parseFlag(cell(cells, 5)),
			Values:   []model.OptionValue{},
		})

	case rowValue:
		if len(p.options) == 0 {
			p.dropped = append(p.dropped, DroppedRow{Index: p.row, Reason: DropNoGroup})
			return
		}
		id := cell(cells, 1)
		if id == "" {
			p.dropped = append(p.dropped, DroppedRow{Index: p.row, Reason: DropNoValueID})
			return
		}
		title := cell(cells, 2)
		value, ok := lookup(cells, 3)
		if !ok {
			value = title
		}
		valueType, ok := lookup(cells, 6)
		if !ok {
			valueType = defaultValueType
		}
		group := &p.options[len(p.options)-1]
		group.Values = append(group.Values, model.OptionValue{
			ID:       id,
			Title:    title,
			Value:    value,
			Type:     valueType,
			Selected: parseFlag(cell(cells, 4)),
			InStock:  parseFlag(cell(cells, 5)),
		})
	}
}

// ParseOptions groups option rows into options.
func ParseOptions(rows [][]string) ([]model.Option, []DroppedRow) {
	p := &optionParser{}
	for _, cells := range rows {
		p.feed(cells)
	}
	if p.options == nil {
		p.options = []model.Option{}
	}
	return p.options, p.dropped
}

func cell(cells []string, i int) string {
	v, _ := lookup(cells, i)
	return v
}

// lookup returns the cell at i, and false when the row is too short.
func lookup(cells []string, i int) (string, bool) {
	if i >= len(cells) {
		return "", false
	}
	return cells[i], true
}

// parseFlag reads authored booleans such as "true", "Yes" or "1".
func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	default:
		return false
	}
}
