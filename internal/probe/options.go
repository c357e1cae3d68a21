package probe

import (
	"time"

	"github.com/xkilldash9x/terminwatch/internal/browser"
	"github.com/xkilldash9x/terminwatch/internal/config"
)

const (
	defaultStepTimeout       = 15 * time.Second
	defaultPollInterval      = 100 * time.Millisecond
	defaultSettleDelay       = 500 * time.Millisecond
	defaultExcerptLimit      = 600
	defaultDiagnosticTimeout = 5 * time.Second
)

// Options is everything the engine needs to know about the target page.
// It is passed in at construction; the engine holds no global state.
type Options struct {
	URL string
	// Heading must be present once the booking page has loaded. Its
	// staleness signals that the form was submitted.
	Heading   browser.Locator
	SelectAll browser.Locator
	Submit    browser.Locator
	// ResultMarkers, when any is present, also signal the result page.
	ResultMarkers []browser.Locator
	Signatures    Signatures

	StepTimeout  time.Duration
	PollInterval time.Duration
	// SettleDelay is slept before every click.
	SettleDelay  time.Duration
	ExcerptLimit int
	// DiagnosticTimeout bounds title and excerpt collection after a failure.
	DiagnosticTimeout time.Duration
}

// OptionsFromConfig builds engine options from the validated configuration.
func OptionsFromConfig(target config.TargetConfig, check config.CheckConfig) Options {
	markers := make([]browser.Locator, 0, len(target.ResultMarkers))
	for _, m := range target.ResultMarkers {
		markers = append(markers, browser.Query(m))
	}
	return Options{
		URL:           target.URL,
		Heading:       browser.Query(target.HeadingSelector),
		SelectAll:     browser.Label(target.SelectAllLabel),
		Submit:        browser.ID(target.SubmitID),
		ResultMarkers: markers,
		Signatures:    NewSignatures(check.FailureSignatures),
		StepTimeout:   check.StepTimeout,
		PollInterval:  check.PollInterval,
		SettleDelay:   check.SettleDelay,
		ExcerptLimit:  check.ExcerptLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.StepTimeout <= 0 {
		o.StepTimeout = defaultStepTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.ExcerptLimit <= 0 {
		o.ExcerptLimit = defaultExcerptLimit
	}
	if o.DiagnosticTimeout <= 0 {
		o.DiagnosticTimeout = defaultDiagnosticTimeout
	}
	return o
}
