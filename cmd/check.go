package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/browser"
	"github.com/xkilldash9x/terminwatch/internal/config"
	"github.com/xkilldash9x/terminwatch/internal/observability"
	"github.com/xkilldash9x/terminwatch/internal/probe"
)

// checkFlags holds command line overrides for a single check.
type checkFlags struct {
	url         string
	headful     bool
	userAgent   string
	stepTimeout time.Duration
	signatures  []string
	output      string
}

// checker is the part of probe.Checker the command needs.
type checker interface {
	Check(ctx context.Context) probe.Classification
}

// newChecker is swapped out in tests.
var newChecker = func(cfg config.Interface, logger *zap.Logger) checker {
	manager := browser.NewManager(cfg.Browser(), logger)
	engine := probe.NewEngine(probe.OptionsFromConfig(cfg.Target(), cfg.Check()), logger)
	return probe.NewChecker(manager, engine, logger)
}

func newCheckCmd() *cobra.Command {
	flags := &checkFlags{}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run one appointment check and exit with its result",
		Long: `Loads the booking page, selects all locations, submits the form and
classifies the result page.

Exit status: 1 if an appointment may be available, 0 otherwise. If the
browser cannot be started the exit status is check.environment_error_exit_code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(flags.output); err != nil {
				return err
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := applyCheckFlags(cmd, cfg, flags); err != nil {
				return err
			}

			logger := observability.GetLogger()
			ctx := cmd.Context()
			if rt := cfg.Check().RunTimeout; rt > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, rt)
				defer cancel()
			}

			result := newChecker(cfg, logger).Check(ctx)
			code := exitCodeFor(result, cfg.Check().EnvironmentErrorExitCode)

			logger.Info("Check complete.",
				zap.String("outcome", string(result.Outcome)),
				zap.Int("exit_code", code),
			)
			if err := renderClassification(cmd.OutOrStdout(), flags.output, result, code); err != nil {
				return err
			}
			return resultError(code)
		},
	}

	checkCmd.Flags().StringVar(&flags.url, "url", "", "booking page to check (overrides target.url)")
	checkCmd.Flags().BoolVar(&flags.headful, "headful", false, "show the browser window")
	checkCmd.Flags().StringVar(&flags.userAgent, "user-agent", "", "browser user agent (overrides browser.user_agent)")
	checkCmd.Flags().DurationVar(&flags.stepTimeout, "step-timeout", 0, "timeout for each step (overrides check.step_timeout)")
	checkCmd.Flags().StringSliceVar(&flags.signatures, "signature", nil, "failure text, repeatable (replaces check.failure_signatures)")
	checkCmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "result format: table or json")
	return checkCmd
}

// applyCheckFlags copies explicitly set flags into cfg and validates the
// result.
func applyCheckFlags(cmd *cobra.Command, cfg config.Interface, flags *checkFlags) error {
	f := cmd.Flags()
	if f.Changed("url") {
		cfg.SetTargetURL(flags.url)
	}
	if f.Changed("headful") {
		cfg.SetBrowserHeadless(!flags.headful)
	}
	if f.Changed("user-agent") {
		cfg.SetBrowserUserAgent(flags.userAgent)
	}
	if f.Changed("step-timeout") {
		cfg.SetCheckStepTimeout(flags.stepTimeout)
	}
	if f.Changed("signature") {
		cfg.SetCheckFailureSignatures(flags.signatures)
	}
	if err := cfg.Validate(); err != nil {
		return &ExitCodeError{Code: ExitUsage, Err: err}
	}
	return nil
}
