package cart

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultModifierValue is used for any baseline modifier the operator did not pick.
const DefaultModifierValue = "Normal"

const (
	ModifierSugar = "sugar"
	ModifierIce   = "ice"
)

var (
	ErrInvalidProduct = errors.New("product id is required")
	ErrInvalidPrice   = errors.New("price must not be negative")
)

// baselineModifiers are always present on a line and lead the signature in this order.
var baselineModifiers = []string{ModifierSugar, ModifierIce}

type Modifiers map[string]string

type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}

type Line struct {
	ProductID string          `json:"id"`
	Signature string          `json:"signature"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	ImageURL  string          `json:"image_url,omitempty"`
	Modifiers Modifiers       `json:"modifiers"`
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	mods := make(Modifiers, len(l.Modifiers))
	for k, v := range l.Modifiers {
		mods[k] = v
	}
	l.Modifiers = mods
	return l
}

// NormalizeModifiers returns a copy of mods with trimmed values and every
// baseline modifier filled in.
func NormalizeModifiers(mods Modifiers) Modifiers {
	out := make(Modifiers, len(mods)+len(baselineModifiers))
	for k, v := range mods {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	for _, k := range baselineModifiers {
		if out[k] == "" {
			out[k] = DefaultModifierValue
		}
	}
	return out
}

// Signature identifies a purchasable configuration: the product id, the
// baseline modifiers in fixed order, then any extra modifiers sorted by name.
func Signature(productID string, mods Modifiers) string {
	normalized := NormalizeModifiers(mods)

	parts := []string{productID}
	for _, k := range baselineModifiers {
		parts = append(parts, normalized[k])
	}

	var extra []string
	for k := range normalized {
		if k != ModifierSugar && k != ModifierIce {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, k+"="+normalized[k])
	}
	return strings.Join(parts, "-")
}

// Cart is the working set of one register session. It is not safe for
// concurrent use; the checkout service serializes access to it.
type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{Lines: []Line{}}
}

// AddItem merges into the line with the same signature or appends a new one.
func (c *Cart) AddItem(p Product, mods Modifiers) (Line, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Line{}, ErrInvalidProduct
	}
	if p.Price.IsNegative() {
		return Line{}, ErrInvalidPrice
	}

	signature := Signature(p.ID, mods)
	for i := range c.Lines {
		if c.Lines[i].Signature == signature {
			c.Lines[i].Quantity++
			return c.Lines[i].clone(), nil
		}
	}

	line := Line{
		ProductID: p.ID,
		Signature: signature,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		ImageURL:  p.ImageURL,
		Modifiers: NormalizeModifiers(mods),
	}
	c.Lines = append(c.Lines, line)
	return line.clone(), nil
}

func (c *Cart) indexOf(productID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// RemoveItem drops the first line for productID. Missing lines are ignored.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

func (c *Cart) IncreaseQuantity(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity++
	return true
}

// DecreaseQuantity removes the line instead of letting it reach zero.
func (c *Cart) DecreaseQuantity(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	if c.Lines[i].Quantity <= 1 {
		return c.RemoveItem(productID)
	}
	c.Lines[i].Quantity--
	return true
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is recomputed on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Snapshot returns a deep copy of the lines; later cart mutations do not
// reach it.
func (c *Cart) Snapshot() []Line {
	return CloneLines(c.Lines)
}

func CloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		out[i] = line.clone()
	}
	return out
}

// TotalOf sums the subtotals of lines.
func TotalOf(lines []Line) decimal.Decimal {
	c := Cart{Lines: lines}
	return c.Total()
}
