package app

import (
	"time"

	"top_rank_ledger/internal/ledger"
	"top_rank_ledger/internal/match"
	"top_rank_ledger/internal/processing"
)

// Backend selects where the ledger lives.
type Backend string

const (
	BackendExcel  Backend = "xlsx"
	BackendSheets Backend = "gsheets"
)

// LedgerConfig locates the ledger workbook.
type LedgerConfig struct {
	Backend         Backend
	ExcelPath       string
	SheetName       string
	SpreadsheetID   string
	CredentialsFile string
}

// SiteConfig holds what the browser session needs.
type SiteConfig struct {
	URL            string
	UserID         string
	Password       string
	ProfileRootDir string
	Headless       bool
	MaxPages       int
	SearchInterval time.Duration
}

type NotificationConfig struct {
	Enabled  bool
	URL      string
	Topic    string
	Priority string
}

// Config is everything a run reads from the environment.
type Config struct {
	Ledger        LedgerConfig
	Site          SiteConfig
	Notifications NotificationConfig

	Layout        ledger.Layout
	Epoch         time.Time
	SearchBy      processing.SearchBy
	Order         match.Order
	SkipUnchanged bool
}

// RunOptions builds the processing options for a run starting at now.
func (c Config) RunOptions(now time.Time) processing.Options {
	return processing.Options{
		Layout:        c.Layout,
		Epoch:         c.Epoch,
		Today:         ledger.Day(now),
		SearchBy:      c.SearchBy,
		Order:         c.Order,
		SkipUnchanged: c.SkipUnchanged,
	}
}
