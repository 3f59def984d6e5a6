package relational

import (
	"fmt"
	"strings"

	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/schema"
)

// resolveColumn maps a property path to a column of qb, joining the
// associations it walks through.
//
// A path whose first segment is an alias already bound in qb starts at
// that alias; any other path starts at the root alias. Each association
// segment is joined as "_" + the segments walked so far, reusing an
// existing join of the same association when there is one.
func resolveColumn(qb *orm.QueryBuilder, path []string) (queryir.Column, error) {
	if len(path) == 0 {
		return queryir.Column{}, fmt.Errorf("empty property path")
	}

	alias, err := qb.RootAlias()
	if err != nil {
		return queryir.Column{}, err
	}
	prefix := ""
	if len(path) > 1 && qb.HasAlias(path[0]) {
		alias = path[0]
		prefix = strings.TrimPrefix(alias, "_") + "_"
		path = path[1:]
	}

	entity, err := qb.EntityOf(alias)
	if err != nil {
		return queryir.Column{}, err
	}

	for i, seg := range path[:len(path)-1] {
		assoc, ok := entity.Association(seg)
		if !ok {
			return queryir.Column{}, fmt.Errorf("%w: %s.%s is not an association", schema.ErrUnknownField, entity.Name, seg)
		}
		alias = joinAlias(qb, alias, assoc.Name, "_"+prefix+strings.Join(path[:i+1], "_"))
		entity, err = qb.EntityOf(alias)
		if err != nil {
			return queryir.Column{}, err
		}
	}

	field := path[len(path)-1]
	if _, ok := entity.Field(field); !ok {
		return queryir.Column{}, fmt.Errorf("%w: %s.%s", schema.ErrUnknownField, entity.Name, field)
	}
	return queryir.Column{Alias: alias, Field: field}, nil
}

// joinAlias returns the alias joining parent.association, adding the join
// under want when the builder does not have one yet.
func joinAlias(qb *orm.QueryBuilder, parent, association, want string) string {
	for _, j := range qb.Joins() {
		if j.Parent == parent && j.Association == association && j.Condition == nil {
			return j.Alias
		}
	}
	qb.LeftJoinUnique(queryir.Join{
		Kind:        queryir.JoinLeft,
		Parent:      parent,
		Association: association,
		Alias:       want,
	})
	return want
}
