package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with older hashes.
const (
	DomainPlan    = "iocplan/plan/v1"
	DomainCatalog = "iocplan/catalog/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanFingerprint hashes a plan description. Two runs over the same catalog,
// bindings and options produce the same fingerprint.
func PlanFingerprint(plan Value) (string, error) {
	canonical, err := MarshalCanonical(plan)
	if err != nil {
		return "", fmt.Errorf("PlanFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// CatalogHash hashes a compiled catalog. The catalog is first rendered as
// JSON, then re-read as a Value so the canonical encoder sees sorted keys.
func CatalogHash(c *Catalog) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to marshal: %w", err)
	}
	v, err := UnmarshalValue(raw)
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to decode: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("CatalogHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// MustPlanFingerprint is like PlanFingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPlanFingerprint(plan Value) string {
	fp, err := PlanFingerprint(plan)
	if err != nil {
		panic(err)
	}
	return fp
}
