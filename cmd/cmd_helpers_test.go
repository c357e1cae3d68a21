package cmd

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/config"
	"github.com/xkilldash9x/terminwatch/internal/observability"
	"github.com/xkilldash9x/terminwatch/internal/probe"
)

// fakeChecker returns a canned classification and records the config it
// was built from.
type fakeChecker struct {
	result probe.Classification
	cfg    config.Interface
	ctx    context.Context
}

func (f *fakeChecker) Check(ctx context.Context) probe.Classification {
	f.ctx = ctx
	return f.result
}

// useFakeChecker swaps the checker factory for the duration of the test.
func useFakeChecker(t *testing.T, result probe.Classification) *fakeChecker {
	t.Helper()
	fake := &fakeChecker{result: result}
	original := newChecker
	newChecker = func(cfg config.Interface, _ *zap.Logger) checker {
		fake.cfg = cfg
		return fake
	}
	t.Cleanup(func() { newChecker = original })
	return fake
}

// run executes the command line and returns the exit status and output.
func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	// Keep the test runner's working directory free of surprises.
	t.Chdir(t.TempDir())
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	rootCmd := NewRootCommand()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	code := exitCode(rootCmd, rootCmd.ExecuteContext(context.Background()))
	return code, out.String()
}
