package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"diningwrapped/internal/wrapped"
)

// Result is the analytics output plus the retrieval metadata the server
// reported. ServerTotalCount counts matching records before normalization
// and may exceed what the summary saw when ReturnCapped is set.
type Result struct {
	Summary          wrapped.Summary `json:"summary"`
	ServerTotalCount int             `json:"serverTotalCount"`
	ReturnCapped     bool            `json:"returnCapped"`
}

// Pipeline runs fetch, normalization, and summarization in order. Its
// Result is the sole data surface the presentation layer consumes.
type Pipeline struct {
	fetcher *Fetcher
	log     zerolog.Logger
}

// New creates the summary pipeline.
func New(fetcher *Fetcher, log zerolog.Logger) *Pipeline {
	return &Pipeline{fetcher: fetcher, log: log}
}

// BuildSummary fetches the window, canonicalizes and filters the records,
// and derives the aggregate summary.
func (p *Pipeline) BuildSummary(ctx context.Context, w Window) (*Result, error) {
	history, err := p.fetcher.Fetch(ctx, w)
	if err != nil {
		return nil, err
	}

	normalized := wrapped.Normalize(history.Transactions)
	p.log.Debug().
		Int("raw", len(history.Transactions)).
		Int("normalized", len(normalized)).
		Msg("Transactions normalized")

	return &Result{
		Summary:          wrapped.Summarize(normalized),
		ServerTotalCount: history.TotalCount,
		ReturnCapped:     history.ReturnCapped,
	}, nil
}
