package cmd

import (
	"github.com/func/agentcore/guardrail"
	awsprovider "github.com/func/agentcore/provider/aws"
	"github.com/func/agentcore/storage/file"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var guardrailCommand = &cobra.Command{
	Use:   "guardrail",
	Short: "Ensure the content filtering guardrail exists",
	Long: `Ensure a Bedrock guardrail filtering hate, violence and sexual content
exists, creating it if needed. The guardrail id is written to a file.`,
	Args: noArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		name, _ := cmd.Flags().GetString("name")
		out, _ := cmd.Flags().GetString("out")
		if name == "" {
			return usageError{errors.New("--name must not be empty")}
		}

		cfg, err := e.aws()
		if err != nil {
			return err
		}
		m := &guardrail.Manager{
			API:    awsprovider.NewGuardrails(cfg),
			Logger: e.logger.Named("guardrail"),
		}
		id, created, err := m.Ensure(e.ctx, guardrail.Minimal(name))
		if err != nil {
			return err
		}
		if out != "" {
			if err := file.WriteAtomic(out, []byte(id+"\n"), 0644); err != nil {
				return errors.Wrap(err, "write guardrail id")
			}
		}

		verb := "Using existing"
		if created {
			verb = "Created"
		}
		printf("%s guardrail %s: %s\n", verb, name, id)
		return nil
	},
}

func init() {
	guardrailCommand.Flags().String("name", guardrail.DefaultName, "Guardrail name")
	guardrailCommand.Flags().String("out", guardrail.DefaultFile, "File to write the guardrail id to, empty to skip")

	Agentcore.AddCommand(guardrailCommand)
}
