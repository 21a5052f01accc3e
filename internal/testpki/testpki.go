// Package testpki builds throwaway certificate hierarchies and a time stamp
// authority for sealing tests.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/digitorus/timestamp"
)

// KeyProfile defines the key type of every certificate in the PKI.
type KeyProfile string

const (
	RSA_2048   KeyProfile = "RSA_2048"
	ECDSA_P256 KeyProfile = "ECDSA_P256"
	ECDSA_P384 KeyProfile = "ECDSA_P384"
)

// TestPKI is a root CA with one intermediate.
type TestPKI struct {
	T                *testing.T
	Profile          KeyProfile
	RootKey          crypto.Signer
	RootCert         *x509.Certificate
	IntermediateKey  crypto.Signer
	IntermediateCert *x509.Certificate

	// TSA is set by StartTSA.
	TSA         *httptest.Server
	TSARequests atomic.Int32
	FailTSA     bool
}

// New creates a P-256 hierarchy.
func New(t *testing.T) *TestPKI {
	return NewWithProfile(t, ECDSA_P256)
}

// NewWithProfile creates a hierarchy with the given key type.
func NewWithProfile(t *testing.T, profile KeyProfile) *TestPKI {
	t.Helper()
	p := &TestPKI{T: t, Profile: profile}

	p.RootKey = GenerateKey(t, profile)
	root := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Memory Card Test Root CA", Organization: []string{"Memory Card Test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	p.RootCert = p.create(root, root, p.RootKey.Public(), p.RootKey)

	p.IntermediateKey = GenerateKey(t, profile)
	inter := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Memory Card Test Intermediate CA", Organization: []string{"Memory Card Test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	p.IntermediateCert = p.create(inter, p.RootCert, p.IntermediateKey.Public(), p.RootKey)
	return p
}

func (p *TestPKI) create(tmpl, parent *x509.Certificate, pub crypto.PublicKey, key crypto.Signer) *x509.Certificate {
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, key)
	if err != nil {
		p.T.Fatalf("failed to create certificate %q: %v", tmpl.Subject.CommonName, err)
	}
	c, err := x509.ParseCertificate(der)
	if err != nil {
		p.T.Fatalf("failed to parse certificate %q: %v", tmpl.Subject.CommonName, err)
	}
	return c
}

func serial(t *testing.T) *big.Int {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("failed to generate serial: %v", err)
	}
	return n
}

// IssueLeaf issues a document signing certificate from the intermediate.
func (p *TestPKI) IssueLeaf(commonName string) (crypto.Signer, *x509.Certificate) {
	key := GenerateKey(p.T, p.Profile)
	tmpl := &x509.Certificate{
		SerialNumber: serial(p.T),
		Subject:      pkix.Name{CommonName: commonName, Organization: []string{"Memory Card Test"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		// id-kp-documentSigning
		UnknownExtKeyUsage: []asn1.ObjectIdentifier{{1, 3, 6, 1, 5, 5, 7, 3, 36}},
	}
	return key, p.create(tmpl, p.IntermediateCert, key.Public(), p.IntermediateKey)
}

// Chain returns the intermediate, which is what a signer sends along.
func (p *TestPKI) Chain() []*x509.Certificate {
	return []*x509.Certificate{p.IntermediateCert}
}

// Roots returns a pool holding only the root.
func (p *TestPKI) Roots() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(p.RootCert)
	return pool
}

// StartTSA runs an RFC 3161 time stamp authority backed by the intermediate.
func (p *TestPKI) StartTSA() string {
	key := GenerateKey(p.T, p.Profile)
	tmpl := &x509.Certificate{
		SerialNumber: serial(p.T),
		Subject:      pkix.Name{CommonName: "Memory Card Test TSA"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
	}
	cert := p.create(tmpl, p.IntermediateCert, key.Public(), p.IntermediateKey)

	p.TSA = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.TSARequests.Add(1)
		if p.FailTSA {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		req, err := timestamp.ParseRequest(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ts := &timestamp.Timestamp{
			HashAlgorithm:     req.HashAlgorithm,
			HashedMessage:     req.HashedMessage,
			Time:              time.Now().UTC().Truncate(time.Second),
			Nonce:             req.Nonce,
			Policy:            asn1.ObjectIdentifier{1, 2, 3, 4, 1},
			SerialNumber:      serial(p.T),
			AddTSACertificate: req.Certificates,
		}
		resp, err := ts.CreateResponseWithOpts(cert, key, crypto.SHA256)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/timestamp-reply")
		_, _ = w.Write(resp)
	}))
	return p.TSA.URL
}

// Close stops the time stamp authority.
func (p *TestPKI) Close() {
	if p.TSA != nil {
		p.TSA.Close()
	}
}

// WritePEM writes the certificate chain and key of a leaf to dir and returns
// both paths.
func (p *TestPKI) WritePEM(dir string, key crypto.Signer, cert *x509.Certificate) (certPath, keyPath string) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		p.T.Fatalf("failed to marshal key: %v", err)
	}
	var chain []byte
	for _, c := range append([]*x509.Certificate{cert}, p.Chain()...) {
		chain = append(chain, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, chain, 0o600); err != nil {
		p.T.Fatalf("failed to write %s: %v", certPath, err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		p.T.Fatalf("failed to write %s: %v", keyPath, err)
	}
	return certPath, keyPath
}

// GenerateKey returns a fresh key for the profile.
func GenerateKey(t *testing.T, profile KeyProfile) crypto.Signer {
	var (
		k   crypto.Signer
		err error
	)
	switch profile {
	case RSA_2048:
		k, err = rsa.GenerateKey(rand.Reader, 2048)
	case ECDSA_P256:
		k, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case ECDSA_P384:
		k, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	default:
		t.Fatalf("unknown key profile: %s", profile)
	}
	if err != nil {
		t.Fatalf("failed to generate %s key: %v", profile, err)
	}
	return k
}
