package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/config"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/refine"
	"github.com/roach88/rulesort/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	RefineFlags
	Alias   string
	Explain bool
}

// ExplainResult is the payload of --explain.
type ExplainResult struct {
	SQL    string `json:"sql" yaml:"sql"`
	Params []any  `json:"params" yaml:"params"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "Query an entity from the configured database",
		Long: `Select an entity from the database named in the configuration file,
filtered, sorted and paginated by rules.

Every --template becomes one member of a filter-template disjunction.
With the optimizer enabled the query runs as a UNION of one SELECT per
template, ordered and paginated outside the UNION.

  rulesort query Person --by address.city --template 'age > :min' --template 'name = :name' -p min=30 -p name=bob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Alias, "alias", "e", "alias of the queried entity")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the SQL and parameters instead of running the query")

	return cmd
}

func runQuery(opts *QueryOptions, entity string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.fail(ErrCodeConfig, ExitCommandError, err)
	}
	s, err := cfg.Schema()
	if err != nil {
		return formatter.fail(ErrCodeConfig, ExitCommandError, err)
	}
	dialect, err := cfg.SQLDialect()
	if err != nil {
		return formatter.fail(ErrCodeConfig, ExitCommandError, err)
	}
	if _, err := s.Entity(entity); err != nil {
		return formatter.fail(ErrCodeInput, ExitCommandError, err)
	}
	req, err := opts.request(cmd)
	if err != nil {
		return formatter.fail(ErrCodeInput, ExitCommandError, err)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return formatter.fail(ErrCodeDatabase, ExitCommandError, err)
	}
	defer db.Close()

	qb := orm.NewEntityManager(s, dialect, db).
		CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: opts.Alias}).
		From(entity, opts.Alias)

	c := compiler.New(cfg.CacheSize)
	refiner := refine.New(engine.DefaultSorting(c), engine.DefaultFiltering(c), refine.WithOptimizer(cfg.Optimizer))
	slog.Info("querying", "trace_id", formatter.TraceID, "entity", entity, "driver", db.Driver())

	ctx := cmd.Context()
	switch {
	case opts.Count:
		n, err := refiner.Count(ctx, qb, req)
		if err != nil {
			return formatter.failRefine(err)
		}
		return formatter.Success(CountResult{Count: n})
	case opts.Explain:
		q, err := refiner.Query(ctx, qb, req)
		if err != nil {
			return formatter.failRefine(err)
		}
		return formatter.Success(ExplainResult{SQL: q.SQL(), Params: q.Params()})
	}

	records, err := refiner.RefineSpec(ctx, qb, req)
	if err != nil {
		return formatter.failRefine(err)
	}
	return formatter.Success(records)
}
