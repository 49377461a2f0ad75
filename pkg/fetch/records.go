package fetch

// PageRecord is one page with the revisions selected for export. A batch
// produces exactly one record per requested title, in request order.
// Missing is set for titles the wiki does not know; such tombstones still
// occupy their position in the export.
type PageRecord struct {
	Title     string
	Namespace int
	PageID    int64
	Missing   bool
	Revisions []Revision
}

// Revision is one page revision. With history enabled a record carries
// every revision ordered oldest to newest, otherwise just the latest.
type Revision struct {
	ID        int64
	ParentID  int64
	Timestamp string
	User      string
	Comment   string
	Model     string
	Format    string
	Text      string
}

// FileRecord describes one uploaded file resolved through imageinfo.
// Name is the title without its namespace prefix; it becomes the stored
// filename.
type FileRecord struct {
	Title   string
	Name    string
	URL     string
	Mime    string
	Size    int64
	Missing bool
}

// PageSink receives the completed records of one page batch. The batch
// index lets the sink restore enumeration order across batches.
type PageSink interface {
	WritePages(batchIndex int, records []PageRecord) error
}

// FileSink stores one downloaded file under its bare name.
type FileSink interface {
	WriteFile(name string, data []byte) error
}
