package taxon

import (
	"fmt"
	"strings"

	apperrors "github.com/yanqian/phenology/pkg/errors"
)

// CanonicalName reduces a GBIF scientific name (with authorship) to its canonical form
// for the given rank. Infraspecific names drop a "subsp."/"var."/"f."-style marker.
func CanonicalName(scientificName, rank string) (string, error) {
	toks := strings.Fields(scientificName)
	if len(toks) == 0 {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "scientific name cannot be empty", nil)
	}

	switch strings.ToUpper(strings.TrimSpace(rank)) {
	case "SUBSPECIES", "VARIETY", "FORM":
		if len(toks) < 3 {
			return "", tooShort(scientificName, rank)
		}
		if isInfraMarker(toks[2]) {
			if len(toks) < 4 {
				return "", tooShort(scientificName, rank)
			}
			return toks[0] + " " + toks[1] + " " + toks[3], nil
		}
		return toks[0] + " " + toks[1] + " " + toks[2], nil
	case "SPECIES":
		if len(toks) < 2 {
			return "", tooShort(scientificName, rank)
		}
		return toks[0] + " " + toks[1], nil
	default:
		return toks[0], nil
	}
}

func isInfraMarker(tok string) bool {
	switch strings.ToLower(tok) {
	case "f.", "fo.", "ssp.":
		return true
	}
	prefix := strings.ToUpper(tok)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	switch prefix {
	case "SUB", "VAR", "FOR":
		return true
	}
	return false
}

func tooShort(name, rank string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("scientific name %q has too few parts for rank %s", name, rank), nil)
}
