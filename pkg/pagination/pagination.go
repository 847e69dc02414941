package pagination

const (
	// DefaultQuantity is the standard page size when a quantity is not provided.
	DefaultQuantity = 24
	// MaxQuantity caps how many rows any page query can request.
	MaxQuantity = 100
)

// Page holds offset pagination inputs from controllers or services.
type Page struct {
	Start    int
	Quantity int
}

// Normalize clamps the page to sane bounds: negative starts become zero and
// quantities fall back to the default or the cap.
func (p Page) Normalize() Page {
	out := p
	if out.Start < 0 {
		out.Start = 0
	}
	out.Quantity = NormalizeQuantity(out.Quantity)
	return out
}

// NormalizeWith behaves like Normalize but uses caller-provided defaults.
func (p Page) NormalizeWith(defaultQuantity, maxQuantity int) Page {
	if defaultQuantity <= 0 {
		defaultQuantity = DefaultQuantity
	}
	if maxQuantity <= 0 {
		maxQuantity = MaxQuantity
	}
	out := p
	if out.Start < 0 {
		out.Start = 0
	}
	if out.Quantity <= 0 {
		out.Quantity = defaultQuantity
	}
	if out.Quantity > maxQuantity {
		out.Quantity = maxQuantity
	}
	return out
}

// NormalizeQuantity enforces the package default and maximum page sizes.
func NormalizeQuantity(quantity int) int {
	if quantity <= 0 {
		return DefaultQuantity
	}
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}
