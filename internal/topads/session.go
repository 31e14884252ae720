package topads

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"top_rank_ledger/internal/config"
	"top_rank_ledger/internal/match"
	"top_rank_ledger/internal/retry"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Account is a TOP ads login.
type Account struct {
	UserID   string
	Password string
}

// Options configures a browser session.
type Options struct {
	URL            string
	ProfileRootDir string
	Headless       bool
	MaxPages       int
	SearchInterval time.Duration
	Columns        TableColumns
}

// Session drives one Chrome instance with a per-account profile. It is not
// safe for concurrent use; Close must be called when the run ends.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	account Account
	opts    Options
	limiter *rate.Limiter
}

// NewSession launches Chrome with the account's profile directory so the
// "remember me" cookie survives between runs.
func NewSession(ctx context.Context, account Account, opts Options) (*Session, error) {
	profileDir := filepath.Join(opts.ProfileRootDir, account.UserID)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1300, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	}))

	s := &Session{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		account: account,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(max(opts.SearchInterval, time.Millisecond)), 1),
	}

	// Start the browser now so launch errors surface here rather than on first use.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().Str("profile", profileDir).Bool("headless", opts.Headless).Msg("Browser session started")
	return s, nil
}

// Close quits the browser. It is safe to call more than once.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		log.Debug().Msg("Browser session closed")
	}
}

// run executes actions in the browser, bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// IsLoggedIn reloads the ads page and reports whether the logout button shows
// up within timeout. Anything ambiguous counts as logged out.
func (s *Session) IsLoggedIn(ctx context.Context, timeout time.Duration) bool {
	if err := s.run(ctx, config.DefaultResilienceConfig.Page.Timeout, chromedp.Navigate(s.opts.URL)); err != nil {
		log.Warn().Err(err).Msg("Failed to open ads page")
		return false
	}
	if err := s.run(ctx, timeout, chromedp.WaitVisible(logoutButtonXPath, chromedp.BySearch)); err == nil {
		log.Debug().Msg("Logout button visible; session is logged in")
		return true
	}
	log.Debug().Msg("Logout button not found; treating session as logged out")
	return false
}

// EnsureLoggedIn reuses a remembered session or logs in, retrying a few times
// with a fixed pause.
func (s *Session) EnsureLoggedIn(ctx context.Context) error {
	if s.IsLoggedIn(ctx, 3*time.Second) {
		log.Info().Str("user", s.account.UserID).Msg("Already logged in")
		return nil
	}

	log.Info().Str("user", s.account.UserID).Msg("No login session; logging in")
	err := retry.Do(ctx, config.DefaultResilienceConfig.Login, func(ctx context.Context) error {
		if err := s.login(ctx); err != nil {
			log.Warn().Err(err).Str("user", s.account.UserID).Msg("Login attempt failed")
			return err
		}
		if !s.IsLoggedIn(ctx, 5*time.Second) {
			return errors.New("logout button not visible after login")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("login failed for %s: %w", s.account.UserID, err)
	}
	log.Info().Str("user", s.account.UserID).Msg("Logged in")
	return nil
}

func (s *Session) login(ctx context.Context) error {
	timeout := config.DefaultResilienceConfig.Page.Timeout

	if err := s.run(ctx, timeout,
		chromedp.Navigate(s.opts.URL),
		chromedp.Sleep(2*time.Second),
		chromedp.WaitVisible(idInputXPath, chromedp.BySearch),
	); err != nil {
		return fmt.Errorf("failed to open login form: %w", err)
	}

	if err := s.typeInto(ctx, idInputXPath, s.account.UserID); err != nil {
		return fmt.Errorf("failed to enter user id: %w", err)
	}
	if err := s.typeInto(ctx, passwordInputXPath, s.account.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	if err := s.run(ctx, timeout,
		chromedp.Click(rememberCheckbox, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.Click(loginButtonXPath, chromedp.BySearch),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}
	return nil
}

// typeInto clears the field and types text one character at a time with
// human-looking pauses, all in a single browser run.
func (s *Session) typeInto(ctx context.Context, sel, text string) error {
	actions := []chromedp.Action{
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Click(sel, chromedp.BySearch),
	}
	for _, ch := range text {
		actions = append(actions,
			chromedp.SendKeys(sel, string(ch), chromedp.BySearch),
			chromedp.Sleep(keystrokeDelay()),
		)
	}
	// Each keystroke pauses at most 600ms on top of the usual page budget.
	timeout := config.DefaultResilienceConfig.Page.Timeout + time.Duration(len(text))*600*time.Millisecond
	return s.run(ctx, timeout, actions...)
}

func keystrokeDelay() time.Duration {
	return 200*time.Millisecond + time.Duration(rand.Int63n(int64(400*time.Millisecond)))
}

// Search types term into the slot search box and submits it.
func (s *Session) Search(ctx context.Context, term string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	timeout := config.DefaultResilienceConfig.Page.Timeout
	err := s.run(ctx, timeout,
		chromedp.WaitVisible(searchInputXPath, chromedp.BySearch),
		chromedp.Clear(searchInputXPath, chromedp.BySearch),
		chromedp.SendKeys(searchInputXPath, term, chromedp.BySearch),
		chromedp.WaitVisible(searchButtonXPath, chromedp.BySearch),
		chromedp.Evaluate(searchButtonJS, nil),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("search for %q failed: %w", term, err)
	}
	log.Debug().Str("term", term).Msg("Search submitted")
	return nil
}

// Results reads the result table from up to MaxPages pages of the current search.
func (s *Session) Results(ctx context.Context) ([]match.ScrapedRow, error) {
	timeout := config.DefaultResilienceConfig.Page.Timeout
	maxPages := max(s.opts.MaxPages, 1)

	var all []match.ScrapedRow
	for page := 1; page <= maxPages; page++ {
		var html string
		if err := s.run(ctx, timeout,
			chromedp.WaitReady(resultRowsQuery, chromedp.ByQuery),
			chromedp.OuterHTML("body", &html, chromedp.ByQuery),
		); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to read result table: %w", err)
			}
			log.Warn().Err(err).Int("page", page).Msg("Failed to read result page; keeping earlier pages")
			break
		}

		rows, err := ParseResultTable(html, s.opts.Columns)
		if err != nil {
			return all, err
		}
		log.Debug().Int("page", page).Int("rows", len(rows)).Msg("Read result page")
		all = append(all, rows...)

		if len(rows) == 0 || page == maxPages || !s.gotoPage(ctx, page+1) {
			break
		}
	}
	return all, nil
}

func (s *Session) gotoPage(ctx context.Context, n int) bool {
	sel := pageButtonXPath(n)
	if err := s.run(ctx, 2*time.Second, chromedp.WaitVisible(sel, chromedp.BySearch)); err != nil {
		return false
	}
	if err := s.run(ctx, config.DefaultResilienceConfig.Page.Timeout,
		chromedp.Click(sel, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		log.Warn().Err(err).Int("page", n).Msg("Failed to open result page")
		return false
	}
	return true
}
