package wiki

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/rs/zerolog/log"
)

// FetchSiteInfo queries general metadata, the namespace table, and site
// statistics in a single request. An export cannot proceed without this
// data, so any failure here is returned to the caller as fatal.
func FetchSiteInfo(ctx context.Context, client *api.Client) (*Site, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	params.Set("siprop", "general|namespaces|statistics")

	rsp, err := client.Query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch site info: %w", err)
	}

	general := rsp.Query.General
	if general == nil {
		return nil, fmt.Errorf("fetch site info: response carries no general section")
	}

	site := &Site{
		Name:      general.Sitename,
		Base:      general.Base,
		Generator: general.Generator,
		Case:      general.Case,
		Lang:      general.Lang,
	}

	if stats := rsp.Query.Statistics; stats != nil {
		site.Statistics = Statistics{
			Pages:    stats.Pages,
			Articles: stats.Articles,
			Edits:    stats.Edits,
			Images:   stats.Images,
			Users:    stats.Users,
		}
	}

	for _, ns := range rsp.Query.Namespaces {
		if ns.ID < 0 {
			// Special and Media are virtual, nothing to list there
			continue
		}
		site.Namespaces = append(site.Namespaces, Namespace{
			ID:        ns.ID,
			Name:      ns.Name,
			Canonical: ns.Canonical,
			Case:      ns.Case,
		})
	}

	sort.Slice(site.Namespaces, func(i, j int) bool {
		return site.Namespaces[i].ID < site.Namespaces[j].ID
	})

	log.Info().
		Str("sitename", site.Name).
		Str("generator", site.Generator).
		Int("namespaces", len(site.Namespaces)).
		Int64("pages", site.Statistics.Pages).
		Msg("Site info fetched")

	return site, nil
}
