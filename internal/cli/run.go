package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-stages/internal/config"
	"github.com/askiada/go-stages/pkg/pipeline"
	"github.com/askiada/go-stages/pkg/pipeline/drawer"
	"github.com/askiada/go-stages/pkg/pipeline/measure"
)

var (
	branchOverride string
	skipStages     []string
	dotFile        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stages of the config",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&branchOverride, "branch", "", "branch being built, overrides the config and BRANCH_NAME")
	runCmd.Flags().StringArrayVar(&skipStages, "skip", nil, "skip a skippable stage, repeatable")
	runCmd.Flags().StringVar(&dotFile, "dot", "", "write the stage chain as a DOT graph to this file")
}

func runRun(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if branchOverride != "" {
		cfg.Branch = branchOverride
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	b, err := newBuild(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	params := pipeline.ParametersMap{}
	for _, name := range skipStages {
		params[pipeline.SkipParameterName(name)] = true
	}

	opts := []pipeline.Option{pipeline.WithParameters(params)}
	if dotFile != "" {
		msr := measure.NewDefaultMeasure()
		opts = append(opts, pipeline.WithPipelineOptions(
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(dotFile), msr),
		))
	}

	pipe, err := b.pipeline(opts...)
	if err != nil {
		return err
	}

	for _, name := range skipStages {
		if !isSkippable(pipe, name) {
			logger.Warn("stage is not skippable, --skip ignored", "stage", name)
		}
	}

	report, err := pipe.End(cmd.Context(), pipeline.EndConfig{})
	if err != nil && report == nil {
		return err
	}
	if err != nil {
		return errors.Wrapf(err, "pipeline finished with %s", report.Result)
	}

	return nil
}

func isSkippable(pipe *pipeline.Pipeline, name string) bool {
	for _, param := range pipe.SkipParameters() {
		if param.Name == pipeline.SkipParameterName(name) {
			return true
		}
	}

	return false
}
