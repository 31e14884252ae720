package app

import (
	"strings"
	"testing"
	"time"

	"top_rank_ledger/internal/match"
	"top_rank_ledger/internal/processing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SHEET_BACKEND", "")
	t.Setenv("EXCEL_PATH", "ledger.xlsm")
	t.Setenv("TOP_ADS_URL", "https://ads.example.com")
	t.Setenv("TOP_USER_ID", "user1")
	t.Setenv("TOP_USER_PW", "secret")
	t.Setenv("TARGET_START_DATE", "2026-01-05")
	for _, key := range []string{
		"SEARCH_BY", "MATCH_ORDER", "SKIP_UNCHANGED", "MAX_PAGES", "SEARCH_INTERVAL",
		"HEADER_ROW", "FIRST_DATA_ROW", "PRODUCT_ID_COL", "KEYWORD_COL", "KIND_COL",
		"DATE_START_COL", "RANK_MARKER", "TRAILER_MARKERS", "HEADLESS", "NTFY_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Ledger.Backend != BackendExcel {
		t.Errorf("Expected xlsx backend, got %q", cfg.Ledger.Backend)
	}
	if cfg.Ledger.SheetName != "데이터" {
		t.Errorf("Expected sheet 데이터, got %q", cfg.Ledger.SheetName)
	}
	if cfg.Site.MaxPages != 4 {
		t.Errorf("Expected 4 pages, got %d", cfg.Site.MaxPages)
	}
	if cfg.Site.SearchInterval != 2*time.Second {
		t.Errorf("Expected 2s search interval, got %v", cfg.Site.SearchInterval)
	}
	if cfg.SearchBy != processing.SearchByKeyword {
		t.Errorf("Expected keyword search, got %q", cfg.SearchBy)
	}
	if cfg.Order != match.OrderUnknown {
		t.Errorf("Expected exhaustive matching, got %v", cfg.Order)
	}
	if !cfg.SkipUnchanged {
		t.Error("Expected SkipUnchanged to default on")
	}
	if cfg.Layout.DateStartCol != 74 || cfg.Layout.KindCol != 11 {
		t.Errorf("Expected default layout, got %+v", cfg.Layout)
	}
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !cfg.Epoch.Equal(want) {
		t.Errorf("Expected epoch %v, got %v", want, cfg.Epoch)
	}
}

func TestLoadConfigLayoutOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATE_START_COL", "bw")
	t.Setenv("PRODUCT_ID_COL", "7")
	t.Setenv("KIND_COL", "0")
	t.Setenv("TRAILER_MARKERS", "직전, 메모 ,")
	t.Setenv("SEARCH_BY", "product")
	t.Setenv("MATCH_ORDER", "descending")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Layout.DateStartCol != 75 {
		t.Errorf("Expected BW to be column 75, got %d", cfg.Layout.DateStartCol)
	}
	if cfg.Layout.ProductIDCol != 7 {
		t.Errorf("Expected product column 7, got %d", cfg.Layout.ProductIDCol)
	}
	if cfg.Layout.KindCol != 0 {
		t.Errorf("Expected kind column disabled, got %d", cfg.Layout.KindCol)
	}
	if len(cfg.Layout.TrailerMarkers) != 2 || cfg.Layout.TrailerMarkers[1] != "메모" {
		t.Errorf("Expected trailer markers [직전 메모], got %v", cfg.Layout.TrailerMarkers)
	}
	if cfg.SearchBy != processing.SearchByProduct {
		t.Errorf("Expected product search, got %q", cfg.SearchBy)
	}
	if cfg.Order != match.OrderEndDescending {
		t.Errorf("Expected descending order, got %v", cfg.Order)
	}
}

func TestLoadConfigReportsEveryProblem(t *testing.T) {
	setRequired(t)
	t.Setenv("TOP_USER_PW", "")
	t.Setenv("MAX_PAGES", "zero")
	t.Setenv("TARGET_START_DATE", "1/5")
	t.Setenv("DATE_START_COL", "0")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected an error")
	}
	for _, want := range []string{"TOP_USER_PW", "MAX_PAGES", "TARGET_START_DATE", "DATE_START_COL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoadConfigSheetsBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("SHEET_BACKEND", "gsheets")
	t.Setenv("SPREADSHEET_ID", "abc123")
	t.Setenv("GOOGLE_CREDENTIALS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Ledger.SpreadsheetID != "abc123" {
		t.Errorf("Expected spreadsheet id abc123, got %q", cfg.Ledger.SpreadsheetID)
	}
	if cfg.Ledger.CredentialsFile != "credentials.json" {
		t.Errorf("Expected default credentials file, got %q", cfg.Ledger.CredentialsFile)
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"A", 1, false},
		{"bv", 74, false},
		{"0", 0, false},
		{"-3", 0, true},
		{"B2", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColumn(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColumn(%q): expected error %v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseColumn(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestRunOptionsTruncatesToday(t *testing.T) {
	cfg := Config{SearchBy: processing.SearchByKeyword}
	opts := cfg.RunOptions(time.Date(2026, 3, 2, 23, 59, 0, 0, time.Local))
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !opts.Today.Equal(want) {
		t.Errorf("Expected today %v, got %v", want, opts.Today)
	}
}
