package entities

import (
	"fmt"
	"strings"
)

// DigestAlgorithm identifies a checksum algorithm understood by makepkg
type DigestAlgorithm string

// Supported digest algorithms
const (
	DigestMD5    DigestAlgorithm = "md5"
	DigestSHA1   DigestAlgorithm = "sha1"
	DigestSHA256 DigestAlgorithm = "sha256"
	DigestSHA512 DigestAlgorithm = "sha512"
	DigestB2     DigestAlgorithm = "b2"
)

// AlgorithmForField derives the digest algorithm from a checksum key such as
// "sha512sums" or "b2sums_x86_64"
func AlgorithmForField(key string) (DigestAlgorithm, error) {
	base, _, _ := strings.Cut(key, "_")
	algo, ok := strings.CutSuffix(base, "sums")
	if !ok {
		return "", fmt.Errorf("%q is not a checksum field", key)
	}
	switch a := DigestAlgorithm(algo); a {
	case DigestMD5, DigestSHA1, DigestSHA256, DigestSHA512, DigestB2:
		return a, nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q in field %q", algo, key)
	}
}

// HexLen returns the length of a hex encoded digest
func (a DigestAlgorithm) HexLen() int {
	switch a {
	case DigestMD5:
		return 32
	case DigestSHA1:
		return 40
	case DigestSHA256:
		return 64
	case DigestSHA512, DigestB2:
		return 128
	default:
		return 0
	}
}

// RecipeChange lists the values the updater writes into a recipe
type RecipeChange struct {
	Version          string
	Release          int
	Source           string
	ArtifactChecksum string
	AssetChecksums   []string // nil keeps the existing trailing entries
}
