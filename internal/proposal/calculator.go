package proposal

import (
	"math"

	"github.com/shopspring/decimal"
)

// percentScale matches the NUMERIC(5, 2) percent columns.
const percentScale = 2

var (
	zeroPercent    = decimal.Zero
	hundredPercent = decimal.NewFromInt(100)
	maxAmount      = decimal.NewFromInt(math.MaxInt64)
)

// Line is the pricing input of a single item.
type Line struct {
	Quantity        int64
	UnitPrice       int64
	DiscountPercent decimal.Decimal
}

// Totals holds every derived amount of a proposal, in minor currency units.
type Totals struct {
	LineTotals     []int64
	Subtotal       int64
	DiscountAmount int64
	Tax            int64
	TotalAmount    int64
}

// ComputeTotals prices lines and applies the proposal-level discount and tax.
//
// Each derived quantity (line net, discount, tax) is rounded half away from
// zero to the minor unit exactly once; sums are then taken on the rounded
// integers, so TotalAmount always equals Subtotal - DiscountAmount + Tax.
func ComputeTotals(lines []Line, discountPercent, taxPercent decimal.Decimal) (Totals, error) {
	if err := validatePercent("discount", discountPercent); err != nil {
		return Totals{}, err
	}

	if err := validatePercent("tax", taxPercent); err != nil {
		return Totals{}, err
	}

	totals := Totals{LineTotals: make([]int64, len(lines))}
	subtotal := decimal.Zero

	for i, l := range lines {
		if err := l.validate(i + 1); err != nil {
			return Totals{}, err
		}

		net := percentOff(decimal.NewFromInt(l.Quantity).Mul(decimal.NewFromInt(l.UnitPrice)), l.DiscountPercent)

		var err error
		if totals.LineTotals[i], err = toAmount(net, "item %d total", i+1); err != nil {
			return Totals{}, err
		}

		subtotal = subtotal.Add(net)
	}

	discount := percentOf(subtotal, discountPercent)
	afterDiscount := subtotal.Sub(discount)
	tax := percentOf(afterDiscount, taxPercent)

	var err error
	if totals.Subtotal, err = toAmount(subtotal, "subtotal"); err != nil {
		return Totals{}, err
	}

	if totals.TotalAmount, err = toAmount(afterDiscount.Add(tax), "total"); err != nil {
		return Totals{}, err
	}

	// Both are bounded by the subtotal.
	totals.DiscountAmount = discount.IntPart()
	totals.Tax = tax.IntPart()

	return totals, nil
}

func percentOff(gross decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	// Shift(-2) divides by 100 without the precision loss of Div.
	return gross.Mul(hundredPercent.Sub(percent)).Shift(-2).Round(0)
}

func percentOf(amount decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Shift(-2).Round(0)
}

// toAmount converts a whole minor-unit value, rejecting what int64 cannot hold.
func toAmount(d decimal.Decimal, format string, args ...any) (int64, error) {
	if d.GreaterThan(maxAmount) {
		return 0, invalid(format+" out of range: %s", append(args, d.String())...)
	}

	return d.IntPart(), nil
}

func (l Line) validate(n int) error {
	if l.Quantity <= 0 {
		return invalid("item %d: quantity must be positive, got %d", n, l.Quantity)
	}

	if l.UnitPrice < 0 {
		return invalid("item %d: unit price must not be negative, got %d", n, l.UnitPrice)
	}

	return validatePercent("item discount", l.DiscountPercent)
}

func validatePercent(name string, p decimal.Decimal) error {
	if p.LessThan(zeroPercent) || p.GreaterThan(hundredPercent) {
		return invalid("%s percent must be between 0 and 100, got %s", name, p.String())
	}

	if !p.Equal(p.Round(percentScale)) {
		return invalid("%s percent allows at most %d decimals, got %s", name, percentScale, p.String())
	}

	return nil
}

// linesOf adapts items for ComputeTotals.
func linesOf(items []*Item) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, DiscountPercent: it.DiscountPercent}
	}

	return lines
}

// applyTotals recomputes every derived amount of p from its items.
func applyTotals(p *Proposal) error {
	totals, err := ComputeTotals(linesOf(p.Items), p.DiscountPercent, p.TaxPercent)
	if err != nil {
		return err
	}

	for i, it := range p.Items {
		it.TotalPrice = totals.LineTotals[i]
	}

	p.Subtotal = totals.Subtotal
	p.DiscountAmount = totals.DiscountAmount
	p.Tax = totals.Tax
	p.TotalAmount = totals.TotalAmount

	return nil
}
