package state

import (
	"time"

	"spritec/css"
	"spritec/graph"
	"spritec/markup"
	"spritec/translate"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// MarkupParser returns markup parser logging to program log.
func (e *LocalEnv) MarkupParser() *markup.Parser {
	if e.markupParser == nil {
		e.markupParser = markup.NewParser(e.Log)
	}
	return e.markupParser
}

// CSSParser returns stylesheet parser logging to program log.
func (e *LocalEnv) CSSParser() *css.Parser {
	if e.cssParser == nil {
		e.cssParser = css.NewParser(e.Log)
	}
	return e.cssParser
}

// Resolver returns graph resolver fetching over HTTP as configured.
func (e *LocalEnv) Resolver() *graph.Resolver {
	fc := e.Cfg.Fetch
	fetcher := graph.NewHTTPFetcher(e.Log,
		graph.WithTimeout(fc.Timeout),
		graph.WithUserAgent(fc.UserAgent),
		graph.WithAuthToken(fc.AuthToken.Reveal()))
	return graph.NewResolver(fetcher, e.Log, fc.Parallel)
}

// TranslateOptions returns options for translating document named source.
func (e *LocalEnv) TranslateOptions(source string) []translate.Option {
	opts := []translate.Option{translate.WithSource(source)}
	if e.Cfg.Translate.Banner != "" {
		opts = append(opts, translate.WithBanner(e.Cfg.Translate.Banner))
	}
	return opts
}
