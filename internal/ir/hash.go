package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainPlan = "factoryplan/plan/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanDigest computes the content digest of a plan, derived state included.
// Two plans with bit-identical state always produce the same digest.
func PlanDigest(p *Plan) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("PlanDigest: failed to marshal: %w", err)
	}
	doc, err := DecodeJSON(raw)
	if err != nil {
		return "", fmt.Errorf("PlanDigest: failed to decode: %w", err)
	}
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("PlanDigest: failed to canonicalize: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// MustPlanDigest is like PlanDigest but panics on error.
// Use only in tests or when the plan is known to be finite.
func MustPlanDigest(p *Plan) string {
	d, err := PlanDigest(p)
	if err != nil {
		panic(err)
	}
	return d
}
