package memorycard

import (
	"crypto/x509"
	"fmt"

	"github.com/digitorus/memorycard/common"
	"github.com/digitorus/memorycard/inspect"
	"github.com/digitorus/memorycard/seal"
)

// Verification is what can be read back from an exported document.
type Verification struct {
	Document common.DocumentInfo `json:"document"`
	Pages    []common.PageInfo   `json:"pages"`
	Seal     *common.SealInfo    `json:"seal,omitempty"`
}

// Verify reads an exported document and, when sig is not empty, checks its
// detached seal against roots. With nil roots the certificates carried in
// the seal are trusted. A seal that does not match is reported in Seal, not
// as an error.
func Verify(data, sig []byte, roots *x509.CertPool) (*Verification, error) {
	doc, err := inspect.OpenBytes(data)
	if err != nil {
		return nil, err
	}

	v := &Verification{Document: doc.Info()}
	for page, err := range doc.Pages() {
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", len(v.Pages)+1, err)
		}
		v.Pages = append(v.Pages, page)
	}

	if len(sig) > 0 {
		info, err := seal.Verify(data, sig, roots)
		if err != nil {
			return nil, fmt.Errorf("failed to read seal: %w", err)
		}
		v.Seal = &info
	}
	return v, nil
}
