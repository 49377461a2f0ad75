package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/wiki-export/pkg/fetch"
	"github.com/Sternrassler/wiki-export/pkg/wiki"
)

// Writer emits the export XML document. Page batches complete in any
// order, so deliveries are buffered by batch index and flushed in
// contiguous runs from the next expected index upward. The emitted page
// order therefore always matches enumeration order, and output is
// byte-reproducible across runs against an unchanged wiki.
//
// Writer implements fetch.PageSink and is safe for concurrent use by
// the scheduler's workers.
type Writer struct {
	mu      sync.Mutex
	enc     *xml.Encoder
	out     io.Writer
	expect  int
	pending map[int][]fetch.PageRecord

	headerWritten bool
	closed        bool

	exported int64
	missing  int64

	logger zerolog.Logger
}

// NewWriter creates a Writer emitting to out.
func NewWriter(out io.Writer) *Writer {
	counted := countingWriter{out}
	enc := xml.NewEncoder(counted)
	enc.Indent("", "  ")

	return &Writer{
		enc:     enc,
		out:     counted,
		pending: make(map[int][]fetch.PageRecord),
		logger:  log.With().Str("component", "xml-writer").Logger(),
	}
}

// WriteHeader opens the document and emits the siteinfo block. It must
// be called exactly once, before any page delivery.
func (w *Writer) WriteHeader(site *wiki.Site) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.headerWritten {
		return fmt.Errorf("header already written")
	}

	root := xml.StartElement{
		Name: xml.Name{Local: "mediawiki"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: exportNamespace},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNamespace},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocation},
			{Name: xml.Name{Local: "version"}, Value: exportVersion},
			{Name: xml.Name{Local: "xml:lang"}, Value: site.Lang},
		},
	}
	if err := w.enc.EncodeToken(root); err != nil {
		return fmt.Errorf("write document root: %w", err)
	}

	info := siteInfoXML{
		Sitename:  site.Name,
		Base:      site.Base,
		Generator: site.Generator,
		Case:      site.Case,
	}
	for _, ns := range site.Namespaces {
		info.Namespaces = append(info.Namespaces, namespaceXML{Key: ns.ID, Case: ns.Case, Name: ns.Name})
	}
	if err := w.enc.Encode(info); err != nil {
		return fmt.Errorf("write siteinfo: %w", err)
	}
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}

	w.headerWritten = true
	return nil
}

// WritePages implements fetch.PageSink. Records are buffered until all
// lower batch indices have arrived, then flushed in order.
func (w *Writer) WritePages(batchIndex int, records []fetch.PageRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.deliver(batchIndex, records)
}

// WriteMissing records a whole batch whose fetch failed: every title
// becomes a tombstone page, and the batch still advances the sequence
// so later batches can flush.
func (w *Writer) WriteMissing(batchIndex int, titles []wiki.Title) error {
	records := make([]fetch.PageRecord, len(titles))
	for i, title := range titles {
		records[i] = fetch.PageRecord{
			Title:     title.Name,
			Namespace: title.Namespace,
			PageID:    title.PageID,
			Missing:   true,
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.deliver(batchIndex, records)
}

func (w *Writer) deliver(batchIndex int, records []fetch.PageRecord) error {
	if !w.headerWritten {
		return fmt.Errorf("page batch %d delivered before header", batchIndex)
	}
	if w.closed {
		return fmt.Errorf("page batch %d delivered after close", batchIndex)
	}
	if batchIndex < w.expect {
		return fmt.Errorf("page batch %d already flushed", batchIndex)
	}
	if _, dup := w.pending[batchIndex]; dup {
		return fmt.Errorf("page batch %d delivered twice", batchIndex)
	}

	w.pending[batchIndex] = records
	return w.flushReady()
}

// flushReady emits every buffered batch that is next in sequence.
// Callers hold the mutex.
func (w *Writer) flushReady() error {
	for {
		records, ok := w.pending[w.expect]
		if !ok {
			break
		}
		delete(w.pending, w.expect)

		for i := range records {
			if err := w.writePage(&records[i]); err != nil {
				return err
			}
		}

		w.logger.Debug().Int("batch", w.expect).Int("pages", len(records)).Msg("Batch flushed")
		w.expect++
	}
	return w.enc.Flush()
}

func (w *Writer) writePage(record *fetch.PageRecord) error {
	page := pageXML{
		Title: record.Title,
		Ns:    record.Namespace,
		ID:    record.PageID,
	}

	if record.Missing {
		w.missing++
		pagesTotal.WithLabelValues("missing").Inc()
	} else {
		w.exported++
		pagesTotal.WithLabelValues("exported").Inc()
		page.Revisions = make([]revisionXML, 0, len(record.Revisions))
		for _, rev := range record.Revisions {
			page.Revisions = append(page.Revisions, revisionXML{
				ID:          rev.ID,
				ParentID:    rev.ParentID,
				Timestamp:   rev.Timestamp,
				Contributor: contributorXML{Username: rev.User},
				Comment:     rev.Comment,
				Model:       defaulted(rev.Model, "wikitext"),
				Format:      defaulted(rev.Format, "text/x-wiki"),
				Text: textXML{
					Space: "preserve",
					Bytes: len(rev.Text),
					Value: rev.Text,
				},
			})
		}
	}

	if err := w.enc.Encode(page); err != nil {
		return fmt.Errorf("write page %q: %w", record.Title, err)
	}
	return nil
}

// Close emits the document end. It fails when page batches are still
// buffered, since flushing them afterwards would be silently dropped
// output.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if !w.headerWritten {
		return fmt.Errorf("close before header")
	}
	if len(w.pending) > 0 {
		return fmt.Errorf("%d page batches still buffered at close, next expected index %d", len(w.pending), w.expect)
	}

	if err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "mediawiki"}}); err != nil {
		return fmt.Errorf("write document end: %w", err)
	}
	if err := w.enc.Flush(); err != nil {
		return fmt.Errorf("flush document: %w", err)
	}
	if _, err := io.WriteString(w.out, "\n"); err != nil {
		return err
	}

	w.closed = true
	return nil
}

// Exported returns the number of pages written with revisions.
func (w *Writer) Exported() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exported
}

// Missing returns the number of tombstone pages written.
func (w *Writer) Missing() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.missing
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// countingWriter feeds the exported byte counter as output is flushed.
type countingWriter struct {
	w io.Writer
}

func (cw countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	exportBytesTotal.Add(float64(n))
	return n, err
}
