package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/refine"
)

// SortOptions holds flags for the sort command.
type SortOptions struct {
	*RootOptions
	RefineFlags
}

// NewSortCommand creates the sort command.
func NewSortCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SortOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sort <records-file|->",
		Short: "Sort and filter a YAML or JSON list of records",
		Long: `Sort, filter and paginate a list of records read from a YAML or JSON
file ("-" reads standard input). Records are sorted first, then filtered,
then sliced by --offset and --limit.

  rulesort sort people.yaml --by age:desc --by name --filter 'age >= :min' -p min=18`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(opts, args[0], cmd)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runSort(opts *SortOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	records, err := readRecords(path, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ErrCodeInput, ExitCommandError, err)
	}
	req, err := opts.request(cmd)
	if err != nil {
		return formatter.fail(ErrCodeInput, ExitCommandError, err)
	}

	c := compiler.New(0)
	refiner := refine.New(engine.DefaultSorting(c), engine.DefaultFiltering(c))
	slog.Debug("sorting records", "trace_id", formatter.TraceID, "records", len(records))

	ctx := cmd.Context()
	if opts.Count {
		n, err := refiner.Count(ctx, records, req)
		if err != nil {
			return formatter.failRefine(err)
		}
		return formatter.Success(CountResult{Count: n})
	}

	result, err := refiner.RefineSpec(ctx, records, req)
	if err != nil {
		return formatter.failRefine(err)
	}
	return formatter.Success(result)
}

// CountResult is the payload of --count.
type CountResult struct {
	Count int `json:"count" yaml:"count"`
}

// readRecords decodes a YAML (or JSON) list.
func readRecords(path string, stdin io.Reader) ([]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var records []any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records %s: %w", path, err)
	}
	if records == nil {
		records = []any{}
	}
	return records, nil
}
