// Package config loads server settings and borrowing rules from an
// optional YAML file layered over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the borrowing policy knobs consulted by the loan workflow.
type Rules struct {
	// DueDays is added to the issue date to compute the due date.
	DueDays int `yaml:"due_days"`

	// MaxBooksPerMember caps concurrent active loans per member.
	MaxBooksPerMember int `yaml:"max_books_per_member"`

	// FinePerDay is charged for each day a loan is overdue.
	FinePerDay int `yaml:"fine_per_day"`

	// RenewalDays is added to the due date on renewal.
	RenewalDays int `yaml:"renewal_days"`

	// MaxBorrowDuration caps the total issue-to-due span in days,
	// limiting how far renewals can push the due date out.
	MaxBorrowDuration int `yaml:"max_borrow_duration"`

	// ReservationHoldDays is recognized for forward compatibility with
	// a reservation feature; nothing consults it yet.
	ReservationHoldDays int `yaml:"reservation_hold_days"`
}

// Config is the full server configuration.
type Config struct {
	Addr    string `yaml:"addr"`
	DBPath  string `yaml:"db_path"`
	LogPath string `yaml:"log_path"`
	Rules   Rules  `yaml:"rules"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:   ":8080",
		DBPath: "library.sqlite3",
		Rules: Rules{
			DueDays:             15,
			MaxBooksPerMember:   5,
			FinePerDay:          10,
			RenewalDays:         7,
			MaxBorrowDuration:   30,
			ReservationHoldDays: 3,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged; a missing file is an error so typos
// in -config don't silently fall back.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Rules.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (r Rules) validate() error {
	if r.DueDays <= 0 {
		return fmt.Errorf("due_days must be positive, got %d", r.DueDays)
	}
	if r.MaxBooksPerMember <= 0 {
		return fmt.Errorf("max_books_per_member must be positive, got %d", r.MaxBooksPerMember)
	}
	if r.FinePerDay < 0 {
		return fmt.Errorf("fine_per_day must not be negative, got %d", r.FinePerDay)
	}
	if r.RenewalDays <= 0 {
		return fmt.Errorf("renewal_days must be positive, got %d", r.RenewalDays)
	}
	if r.MaxBorrowDuration < r.DueDays {
		return fmt.Errorf("max_borrow_duration (%d) must be at least due_days (%d)",
			r.MaxBorrowDuration, r.DueDays)
	}
	return nil
}
