// Package seal produces and checks detached PKCS#7 seals over exported
// card documents, optionally countersigned by an RFC 3161 time stamp.
package seal

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/digitorus/memorycard/common"
)

var (
	oidTimeStampToken       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 14}
	oidSigningCertificateV2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 47}
)

// TSA is a time stamp authority.
type TSA struct {
	URL      string
	Username string
	Password string
}

// Signer seals documents with a certificate and its key.
type Signer struct {
	Certificate *x509.Certificate
	Key         crypto.Signer
	Chain       []*x509.Certificate // intermediates, leaf excluded
	Digest      crypto.Hash         // SHA-256 when zero
	TSA         TSA
	Client      *http.Client
}

func (s *Signer) digest() crypto.Hash {
	if s.Digest == 0 {
		return crypto.SHA256
	}
	return s.Digest
}

// Seal returns a DER encoded detached signature over data.
func (s *Signer) Seal(ctx context.Context, data []byte) ([]byte, error) {
	if s.Certificate == nil || s.Key == nil {
		return nil, errors.New("seal: certificate and key are required")
	}

	signedData, err := pkcs7.NewSignedData(data)
	if err != nil {
		return nil, fmt.Errorf("new signed data: %w", err)
	}
	oid, err := digestOID(s.digest())
	if err != nil {
		return nil, err
	}
	signedData.SetDigestAlgorithm(oid)

	signingCertificate, err := s.signingCertificateAttribute()
	if err != nil {
		return nil, fmt.Errorf("signing certificate attribute: %w", err)
	}
	config := pkcs7.SignerInfoConfig{
		ExtraSignedAttributes: []pkcs7.Attribute{*signingCertificate},
	}
	if err := signedData.AddSignerChain(s.Certificate, s.Key, s.Chain, config); err != nil {
		return nil, fmt.Errorf("add signer chain: %w", err)
	}
	signedData.Detach()

	if s.TSA.URL != "" {
		sd := signedData.GetSignedData()
		resp, err := s.timestamp(ctx, sd.SignerInfos[0].EncryptedDigest)
		if err != nil {
			return nil, fmt.Errorf("get timestamp: %w", err)
		}
		ts, err := timestamp.ParseResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		if _, err := pkcs7.Parse(ts.RawToken); err != nil {
			return nil, fmt.Errorf("parse timestamp token: %w", err)
		}
		attr := pkcs7.Attribute{
			Type:  oidTimeStampToken,
			Value: asn1.RawValue{FullBytes: ts.RawToken},
		}
		if err := sd.SignerInfos[0].SetUnauthenticatedAttributes([]pkcs7.Attribute{attr}); err != nil {
			return nil, err
		}
	}

	return signedData.Finish()
}

// signingCertificateAttribute binds the signer certificate to the signature
// (ESSCertIDv2).
func (s *Signer) signingCertificateAttribute() (*pkcs7.Attribute, error) {
	h := s.digest().New()
	h.Write(s.Certificate.Raw)

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				if s.digest() != crypto.SHA256 {
					oid, _ := digestOID(s.digest())
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(oid)
					})
				}
				b.AddASN1OctetString(h.Sum(nil))
			})
		})
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return &pkcs7.Attribute{Type: oidSigningCertificateV2, Value: asn1.RawValue{FullBytes: der}}, nil
}

func (s *Signer) timestamp(ctx context.Context, digest []byte) ([]byte, error) {
	tsReq, err := timestamp.CreateRequest(bytes.NewReader(digest), &timestamp.RequestOptions{
		Certificates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TSA.URL, bytes.NewReader(tsReq))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request (%s): %w", s.TSA.URL, err)
	}
	req.Header.Add("Content-Type", "application/timestamp-query")
	req.Header.Add("Content-Transfer-Encoding", "binary")
	if s.TSA.Username != "" && s.TSA.Password != "" {
		req.SetBasicAuth(s.TSA.Username, s.TSA.Password)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("non success response (" + strconv.Itoa(resp.StatusCode) + "): " + string(body))
	}
	return body, nil
}

// Verify checks a detached seal over data. roots may be nil, in which case
// the certificates carried in the seal are trusted for chain building.
func Verify(data, sig []byte, roots *x509.CertPool) (common.SealInfo, error) {
	var info common.SealInfo

	p7, err := pkcs7.Parse(sig)
	if err != nil {
		return info, fmt.Errorf("failed to parse PKCS#7: %w", err)
	}
	p7.Content = data

	if len(p7.Signers) > 0 {
		if cert := p7.GetOnlySigner(); cert != nil {
			info.Signer = cert.Subject.CommonName
		}
		if alg, err := hashFromOID(p7.Signers[0].DigestAlgorithm.Algorithm); err == nil {
			info.HashAlgorithm = alg.String()
			h := alg.New()
			h.Write(data)
			info.DocumentHash = hex.EncodeToString(h.Sum(nil))
		}
	}
	var signingTime time.Time
	if err := p7.UnmarshalSignedAttribute(pkcs7.OIDAttributeSigningTime, &signingTime); err == nil {
		info.SigningTime = &signingTime
	}

	if err := verifyTimestamp(p7, &info); err != nil {
		info.Error = err.Error()
		return info, nil
	}

	pool := roots
	if pool == nil {
		pool = x509.NewCertPool()
		for _, c := range p7.Certificates {
			pool.AddCert(c)
		}
	}
	if err := p7.VerifyWithChain(pool); err != nil {
		info.Error = fmt.Sprintf("signature verification failed: %v", err)
		return info, nil
	}
	info.Valid = true
	return info, nil
}

// verifyTimestamp checks that an embedded time stamp covers the signature.
func verifyTimestamp(p7 *pkcs7.PKCS7, info *common.SealInfo) error {
	for _, s := range p7.Signers {
		for _, attr := range s.UnauthenticatedAttributes {
			if !attr.Type.Equal(oidTimeStampToken) {
				continue
			}
			ts, err := timestamp.Parse(attr.Value.Bytes)
			if err != nil {
				return fmt.Errorf("failed to parse timestamp: %v", err)
			}
			h := ts.HashAlgorithm.New()
			h.Write(s.EncryptedDigest)
			if !bytes.Equal(h.Sum(nil), ts.HashedMessage) {
				return errors.New("timestamp hash does not match")
			}
			t := ts.Time
			info.TimeStamp = &t
		}
	}
	return nil
}

// LoadKeyPair reads a PEM certificate chain and a PEM private key. The first
// certificate is the signer; the rest become the chain.
func LoadKeyPair(certPath, keyPath string) (*x509.Certificate, crypto.Signer, []*x509.Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var certs []*x509.Certificate
	for rest := certPEM; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if len(certs) == 0 {
		return nil, nil, nil, fmt.Errorf("no certificate in %s", certPath)
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, nil, err
	}
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, nil, nil, fmt.Errorf("no PEM data in %s", keyPath)
	}
	key, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, nil, err
	}
	return certs[0], key, certs[1:], nil
}

func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(der); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	switch k := k.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		return k, nil
	}
	return nil, fmt.Errorf("unsupported private key type %T", k)
}

func digestOID(h crypto.Hash) (asn1.ObjectIdentifier, error) {
	switch h {
	case crypto.SHA256:
		return pkcs7.OIDDigestAlgorithmSHA256, nil
	case crypto.SHA384:
		return pkcs7.OIDDigestAlgorithmSHA384, nil
	case crypto.SHA512:
		return pkcs7.OIDDigestAlgorithmSHA512, nil
	}
	return nil, fmt.Errorf("unsupported digest %v", h)
}

func hashFromOID(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	for _, h := range []crypto.Hash{crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		if o, _ := digestOID(h); o.Equal(oid) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unsupported digest algorithm %v", oid)
}
