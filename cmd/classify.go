package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/observability"
	"github.com/xkilldash9x/terminwatch/internal/probe"
	"github.com/xkilldash9x/terminwatch/internal/snapshot"
)

func newClassifyCmd() *cobra.Command {
	var (
		signatures []string
		output     string
	)

	classifyCmd := &cobra.Command{
		Use:   "classify <file.html|->",
		Short: "Classify a saved result page without a browser",
		Long: `Applies the same failure signatures as "check" to a saved HTML page, so
changes to the portal's wording can be verified offline. Use - to read the
page from standard input. The exit status follows the same rules as "check".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("signature") {
				cfg.SetCheckFailureSignatures(signatures)
			}

			started := time.Now()
			page, err := snapshot.ExtractFile(args[0], cmd.InOrStdin())
			if err != nil {
				return &ExitCodeError{Code: ExitUsage, Err: err}
			}

			outcome, sig := probe.ClassifyText(probe.NewSignatures(cfg.Check().FailureSignatures), page.Body)
			result := probe.Classification{
				Outcome:    outcome,
				State:      probe.StateClassified,
				Signature:  sig,
				Title:      page.Title,
				StartedAt:  started,
				FinishedAt: time.Now(),
			}
			if outcome == probe.IndeterminateError {
				result.State = probe.StateResultReady
				result.Diagnostic = &probe.Diagnostic{
					Kind:  probe.KindClassificationAmbiguous,
					State: probe.StateResultReady,
					Err:   probe.ErrClassificationAmbiguous,
					Error: "page has no visible text",
					Title: page.Title,
				}
			}

			code := exitCodeFor(result, ExitOK)
			observability.GetLogger().Info("Snapshot classified.",
				zap.String("file", args[0]),
				zap.String("outcome", string(outcome)),
				zap.String("signature", sig),
			)
			if err := renderClassification(cmd.OutOrStdout(), output, result, code); err != nil {
				return err
			}
			return resultError(code)
		},
	}

	classifyCmd.Flags().StringSliceVar(&signatures, "signature", nil, "failure text, repeatable (replaces check.failure_signatures)")
	classifyCmd.Flags().StringVarP(&output, "output", "o", outputTable, "result format: table or json")
	return classifyCmd
}
