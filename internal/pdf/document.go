package pdf

import (
	"bytes"
	"fmt"
	"time"
)

// Info holds the document information dictionary.
type Info struct {
	Title        string
	Subject      string
	Author       string
	Creator      string
	Producer     string
	Keywords     string
	CreationDate time.Time
}

// Dict serializes the information dictionary. Empty fields are omitted.
func (i Info) Dict() []byte {
	var b bytes.Buffer
	b.WriteString("<<")
	for _, f := range []struct{ key, val string }{
		{"Title", i.Title},
		{"Subject", i.Subject},
		{"Author", i.Author},
		{"Creator", i.Creator},
		{"Producer", i.Producer},
		{"Keywords", i.Keywords},
	} {
		if f.val != "" {
			fmt.Fprintf(&b, " /%s %s", f.key, String(f.val))
		}
	}
	if !i.CreationDate.IsZero() {
		fmt.Fprintf(&b, " /CreationDate %s", DateTime(i.CreationDate))
	}
	b.WriteString(" >>")
	return b.Bytes()
}

// PageObject is a page waiting to be written.
type PageObject struct {
	Width, Height float64
	Content       []byte
	Resources     []byte
}

// WritePages writes the page tree for pages and returns the catalog object.
// Content streams are compressed with compressLevel unless it is zero.
func (w *Writer) WritePages(pages []PageObject, compressLevel int) (uint32, error) {
	if len(pages) == 0 {
		return 0, fmt.Errorf("document has no pages")
	}
	treeID := w.Reserve()

	kids := make([]uint32, 0, len(pages))
	for i, p := range pages {
		stream, filter, err := compress(p.Content, compressLevel)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		var c bytes.Buffer
		fmt.Fprintf(&c, "<< %s/Length %d >>\nstream\n", filter, len(stream))
		c.Write(stream)
		c.WriteString("\nendstream")
		contentID, err := w.AddObject(c.Bytes())
		if err != nil {
			return 0, err
		}

		res := p.Resources
		if len(res) == 0 {
			res = []byte("<< >>")
		}
		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources %s /Contents %d 0 R >>",
			treeID, num(p.Width), num(p.Height), res, contentID)
		pageID, err := w.AddObject([]byte(page))
		if err != nil {
			return 0, err
		}
		kids = append(kids, pageID)
	}

	var tree bytes.Buffer
	tree.WriteString("<< /Type /Pages /Kids [")
	for i, k := range kids {
		if i > 0 {
			tree.WriteByte(' ')
		}
		fmt.Fprintf(&tree, "%d 0 R", k)
	}
	fmt.Fprintf(&tree, "] /Count %d >>", len(kids))
	if err := w.WriteObject(treeID, tree.Bytes()); err != nil {
		return 0, err
	}

	return w.AddObject([]byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", treeID)))
}

// num formats a user space number without trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = trimZeros(s)
	return s
}

func trimZeros(s string) string {
	if !bytes.ContainsRune([]byte(s), '.') {
		return s
	}
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
