package api

import (
	"encoding/json"
	"strconv"
)

// Response is a decoded Action API response (format=json, formatversion=2).
type Response struct {
	BatchComplete bool            `json:"batchcomplete"`
	Continue      map[string]any  `json:"continue"`
	Error         *responseError  `json:"error"`
	Warnings      json.RawMessage `json:"warnings"`
	Query         QueryBody       `json:"query"`
}

// responseError is the MediaWiki error object.
type responseError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// QueryBody holds the query modules this client consumes.
type QueryBody struct {
	General    *GeneralInfo             `json:"general"`
	Namespaces map[string]NamespaceInfo `json:"namespaces"`
	Statistics *Statistics              `json:"statistics"`
	AllPages   []PageListing            `json:"allpages"`
	Normalized []Normalization          `json:"normalized"`
	Pages      []PageInfo               `json:"pages"`
}

// GeneralInfo is meta=siteinfo&siprop=general.
type GeneralInfo struct {
	Sitename  string `json:"sitename"`
	Base      string `json:"base"`
	Generator string `json:"generator"`
	Case      string `json:"case"`
	Lang      string `json:"lang"`
}

// NamespaceInfo is one entry of meta=siteinfo&siprop=namespaces.
type NamespaceInfo struct {
	ID        int    `json:"id"`
	Case      string `json:"case"`
	Name      string `json:"name"`
	Canonical string `json:"canonical"`
}

// Statistics is meta=siteinfo&siprop=statistics.
type Statistics struct {
	Pages    int64 `json:"pages"`
	Articles int64 `json:"articles"`
	Edits    int64 `json:"edits"`
	Images   int64 `json:"images"`
	Users    int64 `json:"users"`
}

// PageListing is one entry of list=allpages.
type PageListing struct {
	PageID int64  `json:"pageid"`
	Ns     int    `json:"ns"`
	Title  string `json:"title"`
}

// Normalization maps a requested title to its server-normalized form.
type Normalization struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PageInfo is one entry of query.pages for prop=revisions or prop=imageinfo.
type PageInfo struct {
	PageID    int64          `json:"pageid"`
	Ns        int            `json:"ns"`
	Title     string         `json:"title"`
	Missing   bool           `json:"missing"`
	Invalid   bool           `json:"invalid"`
	Revisions []RevisionInfo `json:"revisions"`
	ImageInfo []ImageInfo    `json:"imageinfo"`
}

// RevisionInfo is one revision of prop=revisions.
type RevisionInfo struct {
	RevID     int64               `json:"revid"`
	ParentID  int64               `json:"parentid"`
	User      string              `json:"user"`
	Timestamp string              `json:"timestamp"`
	Comment   string              `json:"comment"`
	Slots     map[string]SlotInfo `json:"slots"`
}

// Content returns the main slot content of a revision.
func (r RevisionInfo) Content() string {
	if slot, ok := r.Slots["main"]; ok {
		return slot.Content
	}
	return ""
}

// SlotInfo is one content slot of a revision (rvslots=main).
type SlotInfo struct {
	ContentModel  string `json:"contentmodel"`
	ContentFormat string `json:"contentformat"`
	Content       string `json:"content"`
}

// ImageInfo is one entry of prop=imageinfo&iiprop=url|size|mime.
type ImageInfo struct {
	URL            string `json:"url"`
	DescriptionURL string `json:"descriptionurl"`
	Size           int64  `json:"size"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Mime           string `json:"mime"`
}

// ContinueValues returns the continue parameters as strings, ready to feed
// into the next request. The API mixes strings and numbers here.
func (r *Response) ContinueValues() map[string]string {
	if len(r.Continue) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Continue))
	for k, v := range r.Continue {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatInt(int64(val), 10)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			out[k] = ""
		}
	}
	return out
}
