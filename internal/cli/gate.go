package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/pipeline"
)

var (
	gateIn       string
	gateOut      string
	gateProofOut string
)

func newGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate --in <file> --out <decision.json>",
		Short: "Evaluate input text without executing anything",
		Long:  "Writes a decision document and prints ALLOW, FLAG or HALT.\nExit codes: ALLOW 0, FLAG 3, HALT 4, error 1.",
		Args:  cobra.NoArgs,
		RunE:  runGate,
	}
	cmd.Flags().StringVar(&gateIn, "in", "", "Input text file to evaluate")
	cmd.Flags().StringVar(&gateOut, "out", "", "Where to write the decision document")
	cmd.Flags().StringVar(&gateProofOut, "proof-out", "", "Also write a proof of the input file here")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runGate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.pipe.Gate(cmd.Context(), pipeline.GateRequest{
		InputPath:   gateIn,
		DecisionOut: gateOut,
		ProofOut:    gateProofOut,
	})
	if err != nil {
		return err
	}

	printOutcome(cmd.OutOrStdout(), res.Decision.Outcome)
	return outcomeExit(res.Decision.Outcome)
}
