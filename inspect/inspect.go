// Package inspect reads back exported card documents.
package inspect

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"
	"strings"

	pdflib "github.com/digitorus/pdf"

	"github.com/digitorus/memorycard/common"
	"github.com/digitorus/memorycard/internal/pdf"
)

// Document is an opened PDF.
type Document struct {
	r *pdflib.Reader
}

// Open parses a PDF from r.
func Open(r io.ReaderAt, size int64) (*Document, error) {
	rdr, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return &Document{r: rdr}, nil
}

// OpenBytes parses a PDF held in memory.
func OpenBytes(data []byte) (*Document, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// OpenFile parses the PDF at path. The whole file is read into memory.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// Info returns the document metadata.
func (d *Document) Info() common.DocumentInfo {
	info := common.DocumentInfo{Pages: d.r.NumPage()}
	v := d.r.Trailer().Key("Info")
	if !v.IsNull() {
		info.Author = v.Key("Author").Text()
		info.Creator = v.Key("Creator").Text()
		info.Producer = v.Key("Producer").Text()
		info.Subject = v.Key("Subject").Text()
		info.Title = v.Key("Title").Text()
		if kw := v.Key("Keywords").Text(); kw != "" {
			info.Keywords = parseKeywords(kw)
		}
		if t, err := pdf.ParseDateTime(v.Key("CreationDate").Text()); err == nil {
			info.CreationDate = t
		}
		if t, err := pdf.ParseDateTime(v.Key("ModDate").Text()); err == nil {
			info.ModDate = t
		}
	}
	if id := d.r.Trailer().Key("ID"); id.Len() > 0 {
		info.ID = hex.EncodeToString([]byte(id.Index(0).RawString()))
	}
	return info
}

// Pages iterates over the pages in order.
func (d *Document) Pages() iter.Seq2[common.PageInfo, error] {
	return func(yield func(common.PageInfo, error) bool) {
		for i := 1; i <= d.r.NumPage(); i++ {
			p, err := d.page(i)
			if !yield(p, err) {
				return
			}
		}
	}
}

func (d *Document) page(n int) (common.PageInfo, error) {
	page := d.r.Page(n)
	if page.V.IsNull() {
		return common.PageInfo{}, fmt.Errorf("page %d not found", n)
	}
	info := common.PageInfo{Number: n}

	box := page.V.Key("MediaBox")
	if box.Len() == 4 {
		info.Width = box.Index(2).Float64() - box.Index(0).Float64()
		info.Height = box.Index(3).Float64() - box.Index(1).Float64()
	}

	xobjs := page.V.Key("Resources").Key("XObject")
	names := xobjs.Keys()
	sort.Strings(names)
	for _, name := range names {
		x := xobjs.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}
		info.Images = append(info.Images, common.Image{
			Name:   name,
			Width:  int(x.Key("Width").Int64()),
			Height: int(x.Key("Height").Int64()),
			Filter: x.Key("Filter").Name(),
		})
	}
	return info, nil
}

// Content returns the decoded content stream of page n, starting at 1.
func (d *Document) Content(n int) ([]byte, error) {
	if n < 1 || n > d.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", n, d.r.NumPage())
	}
	contents := d.r.Page(n).V.Key("Contents")
	if contents.IsNull() {
		return nil, nil
	}

	var buf bytes.Buffer
	streams := []pdflib.Value{contents}
	if contents.Kind() == pdflib.Array {
		streams = streams[:0]
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	}
	for _, s := range streams {
		rc := s.Reader()
		if rc == nil {
			continue
		}
		_, err := io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read content stream: %w", err)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// parseKeywords splits a keyword list on the usual separators.
func parseKeywords(value string) []string {
	for _, sep := range []string{";", ","} {
		if strings.Contains(value, sep) {
			parts := strings.Split(value, sep)
			out := parts[:0]
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return strings.Fields(value)
}
