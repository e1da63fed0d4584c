package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Progress shows a spinner while a long operation runs. A quiet Progress
// does nothing.
type Progress struct {
	s *spinner.Spinner
}

// NewProgress creates a spinner writing to w.
func NewProgress(w io.Writer, quiet bool) *Progress {
	if quiet {
		return &Progress{}
	}
	return &Progress{s: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))}
}

// Start shows the spinner with message.
func (p *Progress) Start(message string) {
	if p.s == nil {
		return
	}
	p.s.Suffix = " " + message
	p.s.Start()
}

// Stop hides the spinner.
func (p *Progress) Stop() {
	if p.s == nil {
		return
	}
	p.s.Stop()
}

// Run shows the spinner while fn runs.
func (p *Progress) Run(message string, fn func() error) error {
	p.Start(message)
	defer p.Stop()
	return fn()
}
