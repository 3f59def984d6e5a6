package relational

import (
	"errors"
	"fmt"

	"github.com/roach88/rulesort/internal/orm"
)

// ErrUnhandledTarget is returned when an executor is applied to anything
// but an *orm.QueryBuilder.
var ErrUnhandledTarget = errors.New("unhandled target type")

func builder(target any) (*orm.QueryBuilder, error) {
	qb, ok := target.(*orm.QueryBuilder)
	if !ok || qb == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnhandledTarget, target)
	}
	return qb, nil
}

// merge copies the joins added to scratch into qb. scratch must be a
// clone of qb.
func merge(qb, scratch *orm.QueryBuilder) {
	for _, j := range scratch.Joins() {
		qb.LeftJoinUnique(j)
	}
}
