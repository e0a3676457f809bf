package cmd

import (
	"github.com/func/agentcore/config"
	"github.com/func/agentcore/deploy"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var deployCommand = &cobra.Command{
	Use:   "deploy",
	Short: "Create or update an agent runtime",
	Long: `Create or update an agent runtime from a container image.

If a runtime with the name exists, it is updated in place unless
--no-auto-update is set, in which case deploying fails with exit code 3.
If the runtime was not listed but the name is taken, deploying fails with
exit code 4 and the runtime must be resolved manually.

On success, the runtime ARN, id and image are written to the record store.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		req, roleFile, err := deployRequest(cmd, e.project)
		if err != nil {
			return err
		}
		req.RoleARN, err = config.ReadRole(roleFile)
		if err != nil {
			return err
		}

		cfg, err := e.aws()
		if err != nil {
			return err
		}
		store, err := e.store(cmd)
		if err != nil {
			return err
		}
		cp := awsprovider.NewControlPlane(cfg)

		r := &deploy.Reconciler{
			ControlPlane: cp,
			Records:      store,
			Logger:       e.logger.Named("deploy"),
		}
		rec, err := r.Reconcile(e.ctx, req)
		if err != nil {
			return err
		}

		printf("Deployed %s\n", req.Name)
		printf("  ARN:    %s\n", rec.ARN)
		printf("  ID:     %s\n", rec.ID)
		printf("  Image:  %s\n", rec.ArtifactRef)

		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			w := &deploy.Waiter{Status: cp, Logger: e.logger.Named("wait")}
			if err := w.Wait(e.ctx, rec.ID); err != nil {
				return err
			}
			printf("  Status: READY\n")
		}
		return nil
	},
}

// deployRequest resolves the request from flags and the project file. Flags
// take precedence. If no name is given and the project declares a single
// runtime, that runtime is used.
func deployRequest(cmd *cobra.Command, project *config.Project) (deploy.Request, string, error) {
	name := runtimeName(cmd, project)
	if name == "" {
		return deploy.Request{}, "", usageError{errors.New("--name is required")}
	}

	req := deploy.Request{Name: name, AutoUpdate: true}
	var image string
	if rt := project.Runtime(name); rt != nil {
		image = rt.Image
		if rt.AutoUpdate != nil {
			req.AutoUpdate = *rt.AutoUpdate
		}
	}
	req.ArtifactRef = flagOr(cmd, "image", image)
	if req.ArtifactRef == "" {
		return deploy.Request{}, "", usageError{errors.New("--image is required")}
	}
	if cmd.Flags().Changed("no-auto-update") {
		noUpdate, _ := cmd.Flags().GetBool("no-auto-update")
		req.AutoUpdate = !noUpdate
	}

	roleFile := flagOr(cmd, "role-file", project.RoleFile, config.DefaultRoleFile)
	return req, roleFile, nil
}

func deployFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Runtime name")
	cmd.Flags().String("image", "", "Container image URI")
	cmd.Flags().Bool("no-auto-update", false, "Fail if the runtime exists instead of updating it")
	cmd.Flags().String("role-file", "", "File containing the execution role ARN (default "+config.DefaultRoleFile+")")
	cmd.Flags().Bool("wait", false, "Wait for the runtime to become ready")
}

func init() {
	deployFlags(deployCommand)
	Agentcore.AddCommand(deployCommand)
}
