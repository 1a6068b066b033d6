package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-stages/internal/config"
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Show the branch policy resolved for a branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBranch,
}

func runBranch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	branches, err := buildBranches(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	resolved, ok := branches.Resolve(args[0])
	if !ok {
		fmt.Fprintf(out, "%s: no branch policy\n", args[0])

		return nil
	}

	fmt.Fprintf(out, "%s: matched %q\n", args[0], resolved.Name)
	fmt.Fprintf(out, "  protected:            %t\n", resolved.IsProtected)
	fmt.Fprintf(out, "  build history:        %d\n", resolved.BuildHistory)
	fmt.Fprintf(out, "  allow release:        %t\n", resolved.AllowRelease)
	fmt.Fprintf(out, "  allow formal release: %t\n", resolved.AllowFormalRelease)
	fmt.Fprintf(out, "  release tag:          %s\n", resolved.ReleaseTag)

	return nil
}
