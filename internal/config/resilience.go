package config

import (
	"time"

	"top_rank_ledger/internal/retry"
)

type ResilienceConfig struct {
	// Login is a small fixed number of attempts with a fixed pause; hammering the
	// login form gets the account blocked.
	Login retry.Config
	// Page bounds a single wait for an element or page load.
	Page         retry.Config
	SheetWrite   retry.Config
	Notification retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	Login: retry.Config{
		MaxRetries: 2,
		BaseDelay:  3 * time.Second,
		MaxDelay:   3 * time.Second,
		Timeout:    60 * time.Second,
		FixedDelay: true,
	},
	Page: retry.Config{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   1 * time.Second,
		Timeout:    10 * time.Second,
	},
	SheetWrite: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    30 * time.Second,
	},
	Notification: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
}
