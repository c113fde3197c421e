package pricing

import (
	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/money"
)

// Line describes the price components of a single unit.
type Line struct {
	Base money.Amount
	VAT  money.Amount
	Full money.Amount
}

// Compute returns the VAT amount and VAT-inclusive price of one unit of item.
func Compute(item catalog.Item) Line {
	vat := item.Price.Mul(item.VAT)
	return Line{
		Base: item.Price,
		VAT:  vat,
		Full: item.Price.Add(vat),
	}
}

// Summary aggregates computed pricing components.
type Summary struct {
	Units    int
	Subtotal money.Amount
	VAT      money.Amount
	Total    money.Amount
}

// Summarize prices every entry of items as one unit at its base price.
func Summarize(items []catalog.Item) Summary {
	var s Summary
	for _, it := range items {
		line := Compute(it)
		s.Units++
		s.Subtotal = s.Subtotal.Add(line.Base)
		s.VAT = s.VAT.Add(line.VAT)
		s.Total = s.Total.Add(line.Full)
	}
	return s
}

// Group is one distinct item and the number of units bought.
type Group struct {
	Item  catalog.Item
	Qty   int
	Total money.Amount
}

// GroupByID collapses repeated entries by item id, keeping first-seen order.
// Unit prices are taken as given.
func GroupByID(items []catalog.Item) []Group {
	index := make(map[string]int, len(items))
	groups := make([]Group, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ID]; ok {
			groups[i].Qty++
			continue
		}
		index[it.ID] = len(groups)
		groups = append(groups, Group{Item: it, Qty: 1})
	}
	for i := range groups {
		groups[i].Total = groups[i].Item.Price.Mul(money.FromInt(int64(groups[i].Qty)))
	}
	return groups
}
