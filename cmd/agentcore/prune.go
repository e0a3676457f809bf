package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/awslabs/amazon-ecr-containerd-resolver/ecr"
	"github.com/func/agentcore/prune"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/func/agentcore/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneCommand = &cobra.Command{
	Use:   "prune",
	Short: "Delete old images from ECR repositories",
	Long: `Delete all but the most recently pushed images from ECR repositories.

Images without a push time are treated as the oldest. If no repository is
given, the repository is taken from the project file, or from the image of
the deployed runtime in the record store.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		keep, _ := cmd.Flags().GetInt("keep")
		if !cmd.Flags().Changed("keep") && e.project.Retention != nil && e.project.Retention.Keep != nil {
			keep = *e.project.Retention.Keep
		}
		if keep < 0 {
			return usageError{errors.New("--keep must not be negative")}
		}

		repos, _ := cmd.Flags().GetStringSlice("repository")
		if len(repos) == 0 && e.project.Retention != nil {
			repos = e.project.Retention.Repositories
		}
		if len(repos) == 0 {
			store, err := e.store(cmd)
			if err != nil {
				return err
			}
			repo, err := recordRepository(e.ctx, runtimeName(cmd, e.project), store)
			if err != nil {
				return err
			}
			e.logger.Info("Using repository from deployment record", zap.String("repository", repo))
			repos = []string{repo}
		}

		cfg, err := e.aws()
		if err != nil {
			return err
		}
		p := &prune.Pruner{
			Registry: awsprovider.NewRegistry(cfg),
			Logger:   e.logger.Named("prune"),
		}
		sum := p.PruneAll(e.ctx, repos, keep)
		if err := writeSummary(sum); err != nil {
			return err
		}
		return sum.Err
	},
}

// recordRepository derives the repository from the image in the stored
// record.
func recordRepository(ctx context.Context, name string, store storage.Store) (string, error) {
	rec, err := store.GetRecord(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", usageError{errors.New("no repository given and no deployment record found, set --repository")}
		}
		return "", errors.Wrap(err, "read deployment record")
	}
	spec, err := ecr.ParseImageURI(rec.ArtifactRef)
	if err != nil {
		return "", usageError{errors.Wrapf(err, "derive repository from %s, set --repository", rec.ArtifactRef)}
	}
	return spec.Repository, nil
}

func writeSummary(sum prune.Summary) error {
	names := make([]string, 0, len(sum.Results))
	for name := range sum.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPOSITORY\tDELETED\tKEPT\tFAILED\tSKIPPED")
	for _, name := range names {
		r := sum.Results[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, r.Deleted, r.Kept, len(r.Failures), r.Skipped)
	}
	return tw.Flush()
}

func init() {
	pruneCommand.Flags().StringSlice("repository", nil, "Repository to prune, may be repeated")
	pruneCommand.Flags().Int("keep", prune.DefaultKeep, "Number of images to keep per repository")
	pruneCommand.Flags().String("name", "", "Runtime whose deployment record names the repository")

	Agentcore.AddCommand(pruneCommand)
}
