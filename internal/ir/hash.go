package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEntry  = "ownerchain/entry/v1"
	DomainBundle = "ownerchain/bundle/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryHash computes the content address of an entry.
// The payload must already be canonical JSON of an object.
//
// Seq is included so that two writes of an identical payload produce distinct
// entries; predecessor is included so an entry can never name itself.
func EntryHash(author OwnerKey, kind Kind, predecessor Hash, payload []byte, seq int64) (Hash, error) {
	body, err := DecodeObject(payload)
	if err != nil {
		return "", fmt.Errorf("EntryHash: %w", err)
	}

	obj := map[string]any{
		"author":  string(author),
		"kind":    string(kind),
		"payload": body,
		"seq":     seq,
	}
	if predecessor != "" {
		obj["predecessor"] = string(predecessor)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryHash: failed to marshal: %w", err)
	}

	return Hash(hashWithDomain(DomainEntry, canonical)), nil
}

// BundleDigest computes a digest over an export bundle's canonical JSON.
// Used to label export files and compare bundles independent of formatting.
func BundleDigest(bundle any) (string, error) {
	canonical, err := MarshalCanonical(bundle)
	if err != nil {
		return "", fmt.Errorf("BundleDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBundle, canonical), nil
}

// MustEntryHash is like EntryHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryHash(author OwnerKey, kind Kind, predecessor Hash, payload []byte, seq int64) Hash {
	h, err := EntryHash(author, kind, predecessor, payload, seq)
	if err != nil {
		panic(err)
	}
	return h
}
