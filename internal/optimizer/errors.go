package optimizer

import "errors"

var (
	// ErrUnresolvableOrder means an ORDER BY term of the template has no
	// column in the template's result set. The join and alias bookkeeping
	// disagrees with the query, so this is an internal fault.
	ErrUnresolvableOrder = errors.New("order by term not in result set")

	// ErrUnsupportedResult means a state target is neither a query builder
	// nor a UNION query.
	ErrUnsupportedResult = errors.New("unsupported optimizer result")
)
