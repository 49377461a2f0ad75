package wiki

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Enumerator walks list=allpages for one namespace at a time, following
// the server's continuation until the listing is complete.
type Enumerator struct {
	client *api.Client
	logger zerolog.Logger
}

// NewEnumerator creates a title enumerator on top of an API client.
func NewEnumerator(client *api.Client) *Enumerator {
	return &Enumerator{
		client: client,
		logger: log.With().Str("component", "title-enumerator").Logger(),
	}
}

// Titles returns every title in the namespace, in the order the wiki
// lists them. The returned order is the order pages appear in the export.
//
// A request failure aborts this namespace only: the error is an
// *EnumerationError carrying the last good continuation as a resume
// point, and the caller is free to go on with other namespaces.
func (e *Enumerator) Titles(ctx context.Context, namespace int) ([]Title, error) {
	var titles []Title
	var cont api.Continuation

	for !cont.Exhausted() {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("list", "allpages")
		params.Set("apnamespace", strconv.Itoa(namespace))
		params.Set("aplimit", "max")
		cont.Apply(params)

		rsp, err := e.client.Query(ctx, params)
		if err != nil {
			return nil, &EnumerationError{
				Namespace: namespace,
				Continue:  cont.Values(),
				Err:       err,
			}
		}

		for _, p := range rsp.Query.AllPages {
			titles = append(titles, Title{
				PageID:    p.PageID,
				Namespace: p.Ns,
				Name:      p.Title,
			})
		}

		if !cont.Advance(rsp.ContinueValues()) {
			// A server that keeps handing out the same continuation
			// would loop forever; treat it as end-of-stream.
			e.logger.Warn().
				Int("ns_id", namespace).
				Interface("continue", cont.Values()).
				Msg("Continuation did not advance, ending enumeration")
		}
	}

	e.logger.Info().
		Int("ns_id", namespace).
		Int("titles", len(titles)).
		Msg("Namespace enumerated")

	return titles, nil
}
