package contract

// Line is one product position of a contract: identity, product reference
// and a mutable quantity. Lines are owned exclusively by their Contract;
// mutation happens through the aggregate only.
type Line struct {
	id       LineID
	product  ProductID
	quantity Quantity
}

func newLine(id LineID, product ProductID, quantity Quantity) *Line {
	return &Line{id: id, product: product, quantity: quantity}
}

// RehydrateLine restores a persisted line. Inputs are trusted to have been
// validated when first created.
func RehydrateLine(id LineID, product ProductID, quantity Quantity) *Line {
	return newLine(id, product, quantity)
}

func (l *Line) ID() LineID { return l.id }

func (l *Line) Product() ProductID { return l.product }

func (l *Line) Quantity() Quantity { return l.quantity }

func (l *Line) increase(n int) error {
	q, err := l.quantity.Add(n)
	if err != nil {
		return err
	}
	l.quantity = q
	return nil
}

func (l *Line) decrease(n int) error {
	q, err := l.quantity.Subtract(n)
	if err != nil {
		return err
	}
	l.quantity = q
	return nil
}
