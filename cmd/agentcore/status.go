package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/func/agentcore/agent"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/func/agentcore/record"
	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var statusCommand = &cobra.Command{
	Use:   "status [name]",
	Short: "Show the status of agent runtimes",
	Long: `Show the status of an agent runtime.

Without a name, every runtime in the record store is shown with its live
status.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		cfg, err := e.aws()
		if err != nil {
			return err
		}
		cp := awsprovider.NewControlPlane(cfg)

		if len(args) == 0 {
			store, err := e.store(cmd)
			if err != nil {
				return err
			}
			recs, err := listRecords(e.ctx, store)
			if err != nil {
				return err
			}
			return writeStatus(e.ctx, os.Stdout, recs, cp)
		}

		found, err := agent.Find(e.ctx, cp, args[0])
		if err != nil {
			return err
		}
		rt, err := cp.GetRuntime(e.ctx, found.ID)
		if err != nil {
			return &agent.Error{Kind: agent.Remote, Op: "get runtime", Name: found.Name, Err: err}
		}
		e.logger.Debug("Status", zap.String("id", rt.ID), zap.String("listed", string(found.Status)))

		printf("Name:    %s\n", rt.Name)
		printf("ID:      %s\n", rt.ID)
		printf("ARN:     %s\n", rt.ARN)
		printf("Status:  %s\n", rt.Status)
		printf("Image:   %s\n", rt.ArtifactRef)
		return nil
	},
}

type runtimeGetter interface {
	GetRuntime(ctx context.Context, id string) (*agent.Runtime, error)
}

// listRecords returns all stored records. A store that keeps a single
// unnamed record returns it under an empty name.
func listRecords(ctx context.Context, store storage.Store) (map[string]*record.Record, error) {
	if l, ok := store.(storage.Lister); ok {
		recs, err := l.ListRecords(ctx)
		return recs, errors.Wrap(err, "list records")
	}
	rec, err := store.GetRecord(ctx, "")
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read record")
	}
	return map[string]*record.Record{"": rec}, nil
}

// writeStatus writes a table with the live status of each recorded
// runtime. Runtimes that cannot be looked up are still listed; the errors
// are returned together after the table is written.
func writeStatus(ctx context.Context, w io.Writer, recs map[string]*record.Record, rg runtimeGetter) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No deployment records")
		return nil
	}
	names := make([]string, 0, len(recs))
	for name := range recs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs error
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tSTATUS\tIMAGE")
	for _, name := range names {
		rec := recs[name]
		var status string
		image := rec.ArtifactRef
		rt, err := rg.GetRuntime(ctx, rec.ID)
		switch {
		case errors.Is(err, agent.ErrNotFound):
			status = "NOT FOUND"
		case err != nil:
			status = "UNKNOWN"
			errs = multierr.Append(errs, &agent.Error{Kind: agent.Remote, Op: "get runtime", Name: rec.ID, Err: err})
		default:
			status = string(rt.Status)
			if rt.ArtifactRef != "" {
				image = rt.ArtifactRef
			}
		}
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, rec.ID, status, image)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errs
}

func init() {
	Agentcore.AddCommand(statusCommand)
}
