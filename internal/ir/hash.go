package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the encoding
// to change without old fingerprints colliding with new ones.
const (
	DomainPlan     = "sqlgraph/plan/v1"
	DomainTopology = "sqlgraph/topology/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the domain-separated hash of v's canonical encoding.
func Fingerprint(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}
