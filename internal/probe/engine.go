package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/browser"
)

var bodyLocator = browser.Tag("body")

// Engine runs the booking form state machine against a browser driver.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an engine. Zero durations and limits in opts fall back
// to the defaults.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		logger: logger.Named("probe"),
	}
}

// Options returns the effective options, defaults applied.
func (e *Engine) Options() Options { return e.opts }

// Run executes one check against d and returns exactly one Classification.
// Every failure, a panic inside the driver included, is folded into
// IndeterminateError. Run does not release d.
func (e *Engine) Run(ctx context.Context, d browser.Driver) (result Classification) {
	result = Classification{RunID: uuid.NewString(), StartedAt: time.Now()}
	r := &run{
		opts:   e.opts,
		driver: d,
		log:    e.logger.With(zap.String("run_id", result.RunID)),
		state:  StateStart,
	}
	r.log.Info("Starting appointment check.",
		zap.String("url", e.opts.URL),
		zap.Time("started_at", result.StartedAt),
		zap.Int("signatures", e.opts.Signatures.Len()),
	)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Recovered from panic during check.", zap.Any("panic", p), zap.Stack("stack"))
			result = r.fail(ctx, result, &StepError{State: r.state, Kind: KindUnexpected, Err: fmt.Errorf("panic: %v", p)})
		}
		result.FinishedAt = time.Now()
		r.log.Info("Check finished.",
			zap.String("outcome", string(result.Outcome)),
			zap.String("state", string(result.State)),
			zap.Duration("duration", result.Duration()),
		)
	}()

	text, err := r.execute(ctx)
	if err != nil {
		return r.fail(ctx, result, err)
	}

	result.State = StateClassified
	result.Outcome, result.Signature = ClassifyText(e.opts.Signatures, text)
	result.Title = r.title(ctx)

	switch result.Outcome {
	case NoAppointment:
		r.log.Info("No appointment available.", zap.String("signature", result.Signature))
	case AppointmentFound:
		r.log.Info("No failure text on the result page, an appointment may be available!",
			zap.String("title", result.Title))
	}
	return result
}

// run holds the state of a single engine run.
type run struct {
	opts   Options
	driver browser.Driver
	log    *zap.Logger
	state  State
}

// execute walks Start through ResultReady and returns the result page text.
func (r *run) execute(ctx context.Context) (string, error) {
	heading, err := r.start(ctx)
	if err != nil {
		return "", err
	}

	r.state = StateLocationsSelected
	if err := r.selectLocations(ctx); err != nil {
		return "", err
	}

	r.state = StateSubmitted
	if err := r.submit(ctx, heading); err != nil {
		return "", err
	}

	r.state = StateResultReady
	return r.readResult(ctx)
}

func (r *run) start(ctx context.Context) (browser.Element, error) {
	if err := r.load(ctx); err != nil {
		return nil, stepError(StateStart, err)
	}

	var heading browser.Element
	if err := r.waitUntil(ctx, "heading "+r.opts.Heading.String(), r.locate(r.opts.Heading, &heading)); err != nil {
		return nil, stepError(StateStart, err)
	}
	r.log.Info("Booking page loaded.")
	return heading, nil
}

func (r *run) load(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, r.opts.StepTimeout)
	defer cancel()

	err := r.driver.Load(loadCtx, r.opts.URL)
	if err != nil && ctx.Err() == nil && errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: page did not load within %s: %w", ErrNavigationTimeout, r.opts.StepTimeout, err)
	}
	return err
}

func (r *run) selectLocations(ctx context.Context) error {
	var control browser.Element
	if err := r.waitUntil(ctx, "select-all control "+r.opts.SelectAll.String(), r.locate(r.opts.SelectAll, &control)); err != nil {
		return stepError(StateLocationsSelected, err)
	}

	// Clicking an already checked control would clear it again.
	if checked, err := r.driver.Checked(ctx, control); err == nil && checked {
		r.log.Info("All locations already selected.")
		return nil
	}
	if err := r.click(ctx, control); err != nil {
		return stepError(StateLocationsSelected, err)
	}

	err := r.waitUntil(ctx, "select-all control checked", func(ctx context.Context) (bool, error) {
		return r.driver.Checked(ctx, control)
	})
	if err != nil {
		return stepError(StateLocationsSelected, err)
	}
	r.log.Info("All locations selected.")
	return nil
}

func (r *run) submit(ctx context.Context, heading browser.Element) error {
	var button browser.Element
	err := r.waitUntil(ctx, "submit control "+r.opts.Submit.String(), func(ctx context.Context) (bool, error) {
		el, err := r.driver.Find(ctx, r.opts.Submit)
		if err != nil {
			return false, err
		}
		button = el
		return r.driver.Clickable(ctx, el)
	})
	if err != nil {
		return stepError(StateSubmitted, err)
	}
	if err := r.click(ctx, button); err != nil {
		return stepError(StateSubmitted, err)
	}

	// The old document going away is the primary signal. Result markers
	// cover pages that update in place.
	err = r.waitUntil(ctx, "result page", func(ctx context.Context) (bool, error) {
		stale, err := r.driver.Stale(ctx, heading)
		if err == nil && stale {
			return true, nil
		}
		for _, marker := range r.opts.ResultMarkers {
			if _, ferr := r.driver.Find(ctx, marker); ferr == nil {
				r.log.Debug("Result marker present.", zap.Stringer("marker", marker))
				return true, nil
			}
		}
		return false, err
	})
	if err != nil {
		return stepError(StateSubmitted, err)
	}
	r.log.Info("Form submitted, result page loaded.")
	return nil
}

func (r *run) readResult(ctx context.Context) (string, error) {
	var text string
	err := r.waitUntil(ctx, "result text", func(ctx context.Context) (bool, error) {
		body, err := r.driver.Find(ctx, bodyLocator)
		if err != nil {
			return false, err
		}
		t, err := r.driver.Text(ctx, body)
		if err != nil {
			return false, err
		}
		text = t
		return strings.TrimSpace(t) != "", nil
	})
	if err != nil {
		if errors.Is(err, ErrNavigationTimeout) {
			return "", &StepError{
				State: StateResultReady,
				Kind:  KindClassificationAmbiguous,
				Err:   fmt.Errorf("%w: result page text is empty or unreadable: %w", ErrClassificationAmbiguous, err),
			}
		}
		return "", stepError(StateResultReady, err)
	}
	r.log.Debug("Result page text read.", zap.Int("runes", utf8.RuneCountInString(text)))
	return text, nil
}

// click scrolls el into view, lets page scripts settle and clicks it from
// script.
func (r *run) click(ctx context.Context, el browser.Element) error {
	actCtx, cancel := context.WithTimeout(ctx, r.opts.StepTimeout)
	defer cancel()

	if err := r.driver.ScrollIntoView(actCtx, el); err != nil {
		return err
	}
	if err := sleep(actCtx, r.opts.SettleDelay); err != nil {
		return err
	}
	return r.driver.Click(actCtx, el)
}

func (r *run) locate(loc browser.Locator, out *browser.Element) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		el, err := r.driver.Find(ctx, loc)
		if err != nil {
			return false, err
		}
		*out = el
		return true, nil
	}
}

// waitUntil polls cond at the poll interval until it reports true or the
// step timeout elapses. Errors from cond keep the poll going; the last one
// is attached to the timeout. Only cancellation of ctx or of the session
// itself ends the wait early.
func (r *run) waitUntil(ctx context.Context, what string, cond func(context.Context) (bool, error)) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.opts.StepTimeout)
	defer cancel()

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(stepCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for %s: %w", what, context.Cause(ctx))
			}
			if errors.Is(err, context.Canceled) && stepCtx.Err() == nil {
				return fmt.Errorf("waiting for %s: %w", what, err)
			}
			if stepCtx.Err() == nil {
				lastErr = err
			}
		}

		select {
		case <-stepCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for %s: %w", what, context.Cause(ctx))
			}
			if lastErr != nil {
				return fmt.Errorf("%w: %s not met within %s: %w", ErrNavigationTimeout, what, r.opts.StepTimeout, lastErr)
			}
			return fmt.Errorf("%w: %s not met within %s", ErrNavigationTimeout, what, r.opts.StepTimeout)
		case <-ticker.C:
		}
	}
}

// fail turns err into an IndeterminateError classification and logs what
// the browser was showing at the time.
func (r *run) fail(ctx context.Context, result Classification, err error) Classification {
	se := stepError(r.state, err)
	title, excerpt := r.diagnose(ctx)

	result.Outcome = IndeterminateError
	result.State = se.State
	result.Title = title
	result.Diagnostic = &Diagnostic{
		Kind:    se.Kind,
		State:   se.State,
		Err:     se,
		Error:   se.Error(),
		Title:   title,
		Excerpt: excerpt,
	}

	r.log.Warn("Check aborted, result is indeterminate.",
		zap.String("kind", string(se.Kind)),
		zap.String("state", string(se.State)),
		zap.Error(se),
		zap.String("title", title),
		zap.String("excerpt", excerpt),
	)
	return result
}

// diagnose collects the page title and a body excerpt under its own short
// deadline, so it works after ctx was cancelled. It never panics.
func (r *run) diagnose(ctx context.Context) (title, excerpt string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.DiagnosticTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			r.log.Debug("Diagnostics collection panicked.", zap.Any("panic", p))
		}
	}()

	t, err := r.driver.Title(dctx)
	if err != nil {
		r.log.Debug("Could not read page title.", zap.Error(err))
	}
	title = t

	body, err := r.driver.Find(dctx, bodyLocator)
	if err != nil {
		r.log.Debug("Could not locate page body.", zap.Error(err))
		return title, ""
	}
	text, err := r.driver.Text(dctx, body)
	if err != nil {
		r.log.Debug("Could not read page body.", zap.Error(err))
		return title, ""
	}
	return title, excerptOf(text, r.opts.ExcerptLimit)
}

func (r *run) title(ctx context.Context) string {
	tctx, cancel := context.WithTimeout(ctx, r.opts.DiagnosticTimeout)
	defer cancel()
	t, err := r.driver.Title(tctx)
	if err != nil {
		r.log.Debug("Could not read page title.", zap.Error(err))
		return ""
	}
	return t
}

// excerptOf collapses whitespace and keeps at most limit runes.
func excerptOf(text string, limit int) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
