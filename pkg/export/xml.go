package export

import "encoding/xml"

// The element layout follows the MediaWiki XML export format
// (export-0.11). Field order matters: encoding/xml emits elements in
// struct order, and reproducible output depends on it.

const (
	exportNamespace = "http://www.mediawiki.org/xml/export-0.11/"
	exportVersion   = "0.11"
	xsiNamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation  = "http://www.mediawiki.org/xml/export-0.11/ http://www.mediawiki.org/xml/export-0.11.xsd"
)

type siteInfoXML struct {
	XMLName    xml.Name       `xml:"siteinfo"`
	Sitename   string         `xml:"sitename"`
	Base       string         `xml:"base"`
	Generator  string         `xml:"generator"`
	Case       string         `xml:"case"`
	Namespaces []namespaceXML `xml:"namespaces>namespace"`
}

type namespaceXML struct {
	Key  int    `xml:"key,attr"`
	Case string `xml:"case,attr"`
	Name string `xml:",chardata"`
}

// pageXML is one page element. A tombstone for a missing or failed
// title carries no revisions.
type pageXML struct {
	XMLName   xml.Name      `xml:"page"`
	Title     string        `xml:"title"`
	Ns        int           `xml:"ns"`
	ID        int64         `xml:"id,omitempty"`
	Revisions []revisionXML `xml:"revision"`
}

type revisionXML struct {
	ID          int64          `xml:"id"`
	ParentID    int64          `xml:"parentid,omitempty"`
	Timestamp   string         `xml:"timestamp"`
	Contributor contributorXML `xml:"contributor"`
	Comment     string         `xml:"comment,omitempty"`
	Model       string         `xml:"model"`
	Format      string         `xml:"format"`
	Text        textXML        `xml:"text"`
}

type contributorXML struct {
	Username string `xml:"username"`
}

type textXML struct {
	Space string `xml:"xml:space,attr"`
	Bytes int    `xml:"bytes,attr"`
	Value string `xml:",chardata"`
}
