// Package wiki implements site discovery and title enumeration against a
// remote MediaWiki installation.
package wiki

// Namespace is one content namespace of the remote wiki.
type Namespace struct {
	// ID is the numeric namespace key (0 = main, 1 = talk, 6 = file, ...)
	ID int

	// Name is the localized namespace name. Empty for the main namespace.
	Name string

	// Canonical is the English namespace name, empty on the main namespace
	// and on wikis running in English.
	Canonical string

	// Case is the title case rule ("first-letter" or "case-sensitive")
	Case string
}

// Statistics holds the site-wide counters reported by the wiki.
type Statistics struct {
	Pages    int64
	Articles int64
	Edits    int64
	Images   int64
	Users    int64
}

// Site describes the remote wiki and the namespaces it exposes.
type Site struct {
	Name      string
	Base      string
	Generator string
	Case      string
	Lang      string

	// Namespaces lists the enumerable namespaces in ascending ID order.
	// Virtual namespaces (Special, Media) are excluded; they hold no
	// exportable pages.
	Namespaces []Namespace

	Statistics Statistics
}

// Title identifies one page within a namespace, in listing order.
type Title struct {
	PageID    int64
	Namespace int
	Name      string
}
