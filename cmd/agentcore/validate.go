package cmd

import (
	"os"

	"github.com/func/agentcore/harness"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Invoke a deployed runtime with test prompts",
	Long: `Invoke a deployed runtime with a battery of test prompts.

The runtime must be READY. Each prompt is sent in a new session. Exits with
code 5 if any prompt fails.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		name := runtimeName(cmd, e.project)
		if name == "" {
			return usageError{errors.New("--name is required")}
		}

		h := &harness.Harness{Logger: e.logger.Named("validate")}
		if v := e.project.Validation; v != nil {
			h.Qualifier = v.Qualifier
			h.CaseTimeout, _ = v.CaseTimeout()
			if len(v.Prompts) > 0 {
				h.Cases = harness.Cases(v.Prompts...)
			}
		}
		h.Qualifier = flagOr(cmd, "qualifier", h.Qualifier)
		if cmd.Flags().Changed("case-timeout") {
			h.CaseTimeout, _ = cmd.Flags().GetDuration("case-timeout")
		}
		if h.CaseTimeout < 0 {
			return usageError{errors.New("--case-timeout must be positive")}
		}

		cfg, err := e.aws()
		if err != nil {
			return err
		}
		h.Control = awsprovider.NewControlPlane(cfg)
		h.Invoker = awsprovider.NewInvoker(cfg)
		if h.Records, err = e.store(cmd); err != nil {
			return err
		}

		rep := h.Run(e.ctx, name)
		if err := rep.Write(os.Stdout); err != nil {
			return err
		}
		if !rep.Passed {
			return errValidationFailed
		}
		return nil
	},
}

func init() {
	validateCommand.Flags().String("name", "", "Runtime name")
	validateCommand.Flags().String("qualifier", "", "Runtime qualifier (default "+harness.DefaultQualifier+")")
	validateCommand.Flags().Duration("case-timeout", harness.DefaultCaseTimeout, "Timeout for each prompt")

	Agentcore.AddCommand(validateCommand)
}
