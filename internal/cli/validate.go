package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-stages/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	_, err = buildBranches(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stages, %d branch policies, %d admins\n",
		cfgFile, len(cfg.Stages), len(cfg.Branches), len(cfg.Admins))

	return nil
}
