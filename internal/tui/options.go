package tui

import (
	"github.com/tautline/taut/internal/report"
	"github.com/tautline/taut/internal/timeunit"
)

type Option func(*Model)

func DefaultReportOptions() report.Options {
	return report.Options{
		Unit:         timeunit.Default,
		Decimals:     1,
		ShowVariance: true,
		ShowRisk:     true,
	}
}

func WithReportOptions(opts report.Options) Option {
	return func(m *Model) {
		if !opts.Unit.Valid() {
			opts.Unit = m.reportOpts.Unit
		}
		m.reportOpts = opts
	}
}

func WithDisplayUnit(u timeunit.Unit) Option {
	return func(m *Model) {
		if u.Valid() {
			m.reportOpts.Unit = u
		}
	}
}
