package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"top_rank_ledger/internal/config"
	"top_rank_ledger/internal/ledger"
	"top_rank_ledger/internal/match"
	"top_rank_ledger/internal/notifications"
	"top_rank_ledger/internal/processing"
	"top_rank_ledger/internal/sheets"
	"top_rank_ledger/internal/topads"
	"top_rank_ledger/internal/workbook"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable.
func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is required", key)
	}
	return value, nil
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// envReader accumulates every bad variable so one run reports them all.
type envReader struct {
	errs []error
}

func (r *envReader) required(key string) string {
	v, err := GetRequiredEnv(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return strings.TrimSpace(v)
}

func (r *envReader) str(key, def string) string {
	return strings.TrimSpace(GetEnvWithDefault(key, def))
}

func (r *envReader) boolean(key string, def bool) bool {
	raw := r.str(key, strconv.FormatBool(def))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return def
	}
	return v
}

func (r *envReader) positive(key string, def int) int {
	raw := r.str(key, strconv.Itoa(def))
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		r.errs = append(r.errs, fmt.Errorf("%s: expected a positive integer, got %q", key, raw))
		return def
	}
	return v
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, def.String())
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return def
	}
	return v
}

// column accepts a 1-based number or spreadsheet letters ("BV"). When allowZero
// is set, "0" disables the column.
func (r *envReader) column(key string, def int, allowZero bool) int {
	raw := r.str(key, strconv.Itoa(def))
	col, err := ParseColumn(raw)
	if err != nil || (col == 0 && !allowZero) {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid column %q", key, raw))
		return def
	}
	return col
}

// ParseColumn converts "74" or "BV" into a 1-based column number.
func ParseColumn(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative column %d", n)
		}
		return n, nil
	}
	return excelize.ColumnNameToNumber(strings.ToUpper(raw))
}

// LoadConfig reads the run configuration from the environment.
func LoadConfig() (Config, error) {
	r := &envReader{}
	var cfg Config

	cfg.Ledger.Backend = Backend(strings.ToLower(r.str("SHEET_BACKEND", string(BackendExcel))))
	cfg.Ledger.SheetName = r.str("SHEET_NAME", "데이터")
	switch cfg.Ledger.Backend {
	case BackendExcel:
		cfg.Ledger.ExcelPath = r.required("EXCEL_PATH")
	case BackendSheets:
		cfg.Ledger.SpreadsheetID = r.required("SPREADSHEET_ID")
		cfg.Ledger.CredentialsFile = r.str("GOOGLE_CREDENTIALS", "credentials.json")
	default:
		r.errs = append(r.errs, fmt.Errorf("SHEET_BACKEND: unknown backend %q", cfg.Ledger.Backend))
	}

	cfg.Site = SiteConfig{
		URL:            r.required("TOP_ADS_URL"),
		UserID:         r.required("TOP_USER_ID"),
		Password:       r.required("TOP_USER_PW"),
		ProfileRootDir: r.str("PROFILE_ROOT_DIR", "chrome_profiles"),
		Headless:       r.boolean("HEADLESS", false),
		MaxPages:       r.positive("MAX_PAGES", 4),
		SearchInterval: r.duration("SEARCH_INTERVAL", 2*time.Second),
	}

	if raw := r.required("TARGET_START_DATE"); raw != "" {
		epoch, err := ledger.ParseISO(raw)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("TARGET_START_DATE: expected YYYY-MM-DD, got %q", raw))
		}
		cfg.Epoch = epoch
	}

	var ok bool
	if cfg.SearchBy, ok = processing.ParseSearchBy(r.str("SEARCH_BY", "")); !ok {
		r.errs = append(r.errs, fmt.Errorf("SEARCH_BY: expected keyword or product, got %q", os.Getenv("SEARCH_BY")))
	}
	if cfg.Order, ok = match.ParseOrder(r.str("MATCH_ORDER", "")); !ok {
		r.errs = append(r.errs, fmt.Errorf("MATCH_ORDER: unknown order %q", os.Getenv("MATCH_ORDER")))
	}
	cfg.SkipUnchanged = r.boolean("SKIP_UNCHANGED", true)

	def := ledger.DefaultLayout()
	cfg.Layout = ledger.Layout{
		HeaderRow:      r.positive("HEADER_ROW", def.HeaderRow),
		FirstDataRow:   r.positive("FIRST_DATA_ROW", def.FirstDataRow),
		ProductIDCol:   r.column("PRODUCT_ID_COL", def.ProductIDCol, false),
		KeywordCol:     r.column("KEYWORD_COL", def.KeywordCol, false),
		KindCol:        r.column("KIND_COL", def.KindCol, true),
		DateStartCol:   r.column("DATE_START_COL", def.DateStartCol, false),
		RankMarker:     r.str("RANK_MARKER", def.RankMarker),
		TrailerMarkers: def.TrailerMarkers,
	}
	if raw := r.str("TRAILER_MARKERS", ""); raw != "" {
		cfg.Layout.TrailerMarkers = splitList(raw)
	}
	if cfg.Layout.FirstDataRow <= cfg.Layout.HeaderRow {
		r.errs = append(r.errs, fmt.Errorf("FIRST_DATA_ROW (%d) must be below HEADER_ROW (%d)",
			cfg.Layout.FirstDataRow, cfg.Layout.HeaderRow))
	}

	cfg.Notifications = NotificationConfig{
		Enabled:  r.boolean("NTFY_ENABLED", false),
		URL:      r.str("NTFY_URL", "https://ntfy.sh"),
		Topic:    r.str("NTFY_TOPIC", "top-rank-ledger"),
		Priority: r.str("NTFY_PRIORITY", "default"),
	}

	if len(r.errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %w", errors.Join(r.errs...))
	}

	log.Debug().
		Str("backend", string(cfg.Ledger.Backend)).
		Str("sheet", cfg.Ledger.SheetName).
		Str("epoch", cfg.Epoch.Format(ledger.ISOLayout)).
		Str("search_by", string(cfg.SearchBy)).
		Int("max_pages", cfg.Site.MaxPages).
		Msg("Loaded configuration")
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OpenLedger opens the configured ledger backend.
func OpenLedger(ctx context.Context, cfg LedgerConfig) (ledger.Book, error) {
	log.Debug().Str("backend", string(cfg.Backend)).Str("sheet", cfg.SheetName).Msg("Opening ledger")
	switch cfg.Backend {
	case BackendSheets:
		client, err := sheets.NewClient(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		book, err := sheets.Open(ctx, client, cfg.SpreadsheetID, cfg.SheetName)
		if err != nil {
			return nil, err
		}
		return book, nil
	default:
		book, err := workbook.Open(cfg.ExcelPath, cfg.SheetName)
		if err != nil {
			return nil, err
		}
		return book, nil
	}
}

// OpenSite starts the browser session for the configured account.
func OpenSite(ctx context.Context, cfg SiteConfig) (*topads.Session, error) {
	return topads.NewSession(ctx,
		topads.Account{UserID: cfg.UserID, Password: cfg.Password},
		topads.Options{
			URL:            cfg.URL,
			ProfileRootDir: cfg.ProfileRootDir,
			Headless:       cfg.Headless,
			MaxPages:       cfg.MaxPages,
			SearchInterval: cfg.SearchInterval,
			Columns:        topads.DefaultTableColumns(),
		})
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient(cfg NotificationConfig) *notifications.Client {
	log.Debug().
		Bool("enabled", cfg.Enabled).
		Str("base_url", cfg.URL).
		Str("topic", cfg.Topic).
		Msg("Initializing notification client")

	client := notifications.NewClient(cfg.URL, cfg.Topic, cfg.Enabled, cfg.Priority, config.DefaultResilienceConfig.Notification)

	if cfg.Enabled {
		log.Info().Str("topic", cfg.Topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}
