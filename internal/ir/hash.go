package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainArtifact = "wrapgen/artifact/v1"
	DomainOptions  = "wrapgen/options/v1"
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

// ArtifactDigest computes the content-addressed digest of an emitted artifact.
// The module name is part of the identity; the text is NFC normalized so the
// digest is stable across editors that rewrite Unicode forms.
func ArtifactDigest(module, text string) string {
	data := make([]byte, 0, len(module)+1+len(text))
	data = append(data, module...)
	data = append(data, 0x00)
	data = append(data, norm.NFC.String(text)...)
	return hashWithDomain(DomainArtifact, data)
}

// OptionsDigest computes the digest of a module's effective options,
// recorded so a run can be matched to the configuration that produced it.
// The value is hashed in canonical JSON form, so the same options written
// as TOML or YAML, in any key order, share one digest.
func OptionsDigest(v map[string]any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("options digest: %w", err)
	}
	return hashWithDomain(DomainOptions, data), nil
}
