package memorycard

import (
	"crypto"
	"fmt"

	"github.com/digitorus/memorycard/seal"
)

// SealConfig names the key material of a sealing exporter.
type SealConfig struct {
	CertificatePath string
	KeyPath         string
	TSA             seal.TSA
	Digest          crypto.Hash
}

// LoadSealer reads a PEM certificate chain and key and returns a signer
// for WithSealer.
func LoadSealer(c SealConfig) (*seal.Signer, error) {
	cert, key, chain, err := seal.LoadKeyPair(c.CertificatePath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sealing key: %w", err)
	}
	return &seal.Signer{
		Certificate: cert,
		Key:         key,
		Chain:       chain,
		Digest:      c.Digest,
		TSA:         c.TSA,
	}, nil
}

var _ Sealer = (*seal.Signer)(nil)
