package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/config"
	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/pipeline"
)

var (
	runIn        string
	runOut       string
	runArtifacts string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run --in <file> --out <file> [--artifacts <dir>] [-- <command> [args...]]",
		Short: "Gate, execute and seal",
		Long: "Evaluates the input, writes decision.json and input.proof.json, then on ALLOW or FLAG\n" +
			"pipes the input through the command (or copies it) and writes output.proof.json.\n" +
			"HALT never executes. The command reads the input on stdin and writes the output on stdout.\n" +
			"Runs sharing an artifacts directory are not coordinated.",
		RunE: runRun,
	}
	cmd.Flags().StringVar(&runIn, "in", "", "Input text file")
	cmd.Flags().StringVar(&runOut, "out", "", "Output file written by the command (or a copy of the input)")
	cmd.Flags().StringVar(&runArtifacts, "artifacts", "", "Artifacts directory (default from config, "+config.DefaultArtifactsDir+")")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && cmd.ArgsLenAtDash() != 0 {
		return fmt.Errorf("the command to run must follow --")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	artifacts := runArtifacts
	if artifacts == "" {
		artifacts = e.cfg.ArtifactsDir
	}

	res, err := e.pipe.Run(cmd.Context(), pipeline.RunRequest{
		InputPath:    runIn,
		OutputPath:   runOut,
		ArtifactsDir: artifacts,
		Command:      args,
	})
	if err != nil {
		var cmdErr *pipeline.ExternalCommandError
		if errors.As(err, &cmdErr) {
			// Relay the command's diagnostics untouched.
			fmt.Fprint(cmd.ErrOrStderr(), cmdErr.Stderr)
		}
		return &ExitError{Code: model.ExitError, Err: err}
	}

	printOutcome(cmd.OutOrStdout(), res.Decision.Outcome)
	return outcomeExit(res.Decision.Outcome)
}
