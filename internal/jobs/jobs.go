// Package jobs loads and validates the collection jobs file.
package jobs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Defaults applies to every job unless the job overrides the field.
type Defaults struct {
	Interval  string `yaml:"interval"`
	MailLimit int    `yaml:"mail_limit"`
	MaxPerRun int    `yaml:"max_per_run"`
}

// SearchTuning narrows the upstream search for one job.
type SearchTuning struct {
	PrintType    string `yaml:"print_type"`
	LangRestrict string `yaml:"lang_restrict"`
}

// Job is one named collection channel with its query set.
type Job struct {
	Name        string       `yaml:"name"`
	Queries     []string     `yaml:"queries"`
	Enabled     *bool        `yaml:"enabled"`
	Interval    string       `yaml:"interval"`
	MaxPerRun   int          `yaml:"max_per_run"`
	GoogleBooks SearchTuning `yaml:"google_books"`
}

// File is the parsed jobs document.
type File struct {
	Defaults Defaults `yaml:"defaults"`
	Jobs     []Job    `yaml:"jobs"`
}

// IsEnabled reports whether the job should run; jobs are enabled unless
// explicitly switched off.
func (j Job) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// EffectiveInterval resolves the job's run interval against the defaults.
func (f *File) EffectiveInterval(job Job) (time.Duration, error) {
	raw := job.Interval
	if raw == "" {
		raw = f.Defaults.Interval
	}
	if raw == "" {
		raw = "24h"
	}
	return ParseInterval(raw)
}

// EffectiveMaxPerRun resolves the job's per-run fetch cap against the
// defaults. Zero means uncapped.
func (f *File) EffectiveMaxPerRun(job Job) int {
	if job.MaxPerRun > 0 {
		return job.MaxPerRun
	}
	return f.Defaults.MaxPerRun
}

// Load reads and validates a jobs file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a jobs document.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) validate() error {
	if len(f.Jobs) == 0 {
		return fmt.Errorf("jobs file defines no jobs")
	}
	if f.Defaults.Interval != "" {
		if _, err := ParseInterval(f.Defaults.Interval); err != nil {
			return fmt.Errorf("defaults.interval: %w", err)
		}
	}
	if f.Defaults.MailLimit < 0 {
		return fmt.Errorf("defaults.mail_limit must be >= 0")
	}
	if f.Defaults.MaxPerRun < 0 {
		return fmt.Errorf("defaults.max_per_run must be >= 0")
	}

	seen := make(map[string]bool, len(f.Jobs))
	for i, job := range f.Jobs {
		name := strings.TrimSpace(job.Name)
		if name == "" {
			return fmt.Errorf("job %d: empty name", i)
		}
		if seen[name] {
			return fmt.Errorf("job %q: duplicate name", name)
		}
		seen[name] = true

		hasQuery := false
		for _, query := range job.Queries {
			if strings.TrimSpace(query) != "" {
				hasQuery = true
				break
			}
		}
		if !hasQuery {
			return fmt.Errorf("job %q: no queries", name)
		}
		if job.Interval != "" {
			if _, err := ParseInterval(job.Interval); err != nil {
				return fmt.Errorf("job %q: interval: %w", name, err)
			}
		}
		if job.MaxPerRun < 0 {
			return fmt.Errorf("job %q: max_per_run must be >= 0", name)
		}
		if lang := job.GoogleBooks.LangRestrict; lang != "" {
			if _, err := language.Parse(lang); err != nil {
				return fmt.Errorf("job %q: lang_restrict %q: %w", name, lang, err)
			}
		}
		if pt := job.GoogleBooks.PrintType; pt != "" && pt != "all" && pt != "books" && pt != "magazines" {
			return fmt.Errorf("job %q: print_type %q not one of all, books, magazines", name, pt)
		}
	}
	return nil
}

// ParseInterval parses a run interval. It accepts Go durations ("12h",
// "90m") plus a day suffix ("7d") that time.ParseDuration lacks.
func ParseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty interval")
	}
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil || days < 1 {
			return 0, fmt.Errorf("invalid day interval %q", raw)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", raw, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval %q must be positive", raw)
	}
	return interval, nil
}
