// Package pdf writes small, self-contained PDF 1.4 files.
package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/mattetti/filebuffer"
	"golang.org/x/crypto/blake2b"
)

// Writer appends indirect objects to an in-memory file and records their
// offsets for the cross-reference table.
type Writer struct {
	out     *filebuffer.Buffer
	offsets []int64 // index i holds object i+1; 0 means reserved
	digest  []byte
}

// NewWriter starts a file with the PDF header.
func NewWriter() *Writer {
	w := &Writer{out: filebuffer.New([]byte{})}
	// the binary comment marks the file as containing 8-bit data
	_, _ = w.out.Write([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))
	return w
}

func (w *Writer) size() int64 {
	return int64(w.out.Buff.Len())
}

// Reserve allocates an object number whose body is written later with
// WriteObject.
func (w *Writer) Reserve() uint32 {
	w.offsets = append(w.offsets, 0)
	return uint32(len(w.offsets))
}

// AddObject writes data as the next indirect object.
func (w *Writer) AddObject(data []byte) (uint32, error) {
	id := w.Reserve()
	return id, w.WriteObject(id, data)
}

// WriteObject writes the body of a reserved object.
func (w *Writer) WriteObject(id uint32, data []byte) error {
	if id == 0 || int(id) > len(w.offsets) {
		return fmt.Errorf("object %d was not reserved", id)
	}
	if w.offsets[id-1] != 0 {
		return fmt.Errorf("object %d already written", id)
	}
	w.offsets[id-1] = w.size()

	var obj bytes.Buffer
	fmt.Fprintf(&obj, "%d 0 obj\n", id)
	obj.Write(data)
	obj.WriteString("\nendobj\n")
	if _, err := w.out.Write(obj.Bytes()); err != nil {
		return fmt.Errorf("failed to write object %d: %w", id, err)
	}
	return nil
}

// Seal fixes the file identifier to a digest of everything written so far
// plus extra. Objects written afterwards, such as an information dictionary
// carrying a creation date, do not change the identifier.
func (w *Writer) Seal(extra ...[]byte) {
	h, _ := blake2b.New256(nil)
	h.Write(w.out.Buff.Bytes())
	for _, e := range extra {
		h.Write(e)
	}
	w.digest = h.Sum(nil)[:16]
}

// ID returns the file identifier, sealing the writer when needed.
func (w *Writer) ID() []byte {
	if w.digest == nil {
		w.Seal()
	}
	return w.digest
}

// Close writes the cross-reference table and trailer. info may be zero when
// the file has no information dictionary.
func (w *Writer) Close(root, info uint32) error {
	for i, off := range w.offsets {
		if off == 0 {
			return fmt.Errorf("object %d reserved but never written", i+1)
		}
	}
	id := hex.EncodeToString(w.ID())

	xrefStart := w.size()
	var buf bytes.Buffer
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", len(w.offsets)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range w.offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}

	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size %d /Root %d 0 R", len(w.offsets)+1, root)
	if info != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, " /ID [<%s> <%s>] >>\n", id, id)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefStart)

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	return nil
}

// Bytes returns the file written so far.
func (w *Writer) Bytes() []byte {
	return w.out.Buff.Bytes()
}

// WriteTo copies the file to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.Bytes())
	return int64(n), err
}
