package items

// Profile describes the column layout of an item sheet. Header names are
// matched case-insensitively; type, description and discount are optional.
type Profile struct {
	Name        string
	NameCol     string
	QuantityCol string
	PriceCol    string
	TypeCol     string
	DescCol     string
	DiscountCol string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.QuantityCol, p.PriceCol}
}

// profiles is the ordered list of sheet layouts tried during detection.
var profiles = []Profile{
	{
		Name:        "erp",
		NameCol:     "품목명",
		QuantityCol: "수량",
		PriceCol:    "단가",
		TypeCol:     "구분",
		DescCol:     "규격",
		DiscountCol: "할인율",
	},
	{
		Name:        "export",
		NameCol:     "name",
		QuantityCol: "quantity",
		PriceCol:    "unit_price",
		TypeCol:     "type",
		DescCol:     "description",
		DiscountCol: "discount_percent",
	},
	{
		Name:        "quote",
		NameCol:     "item",
		QuantityCol: "qty",
		PriceCol:    "unit price",
		TypeCol:     "type",
		DescCol:     "description",
		DiscountCol: "discount",
	},
}
