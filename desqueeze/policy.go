package desqueeze

import (
	"strings"

	"dng-desqueeze/config"
)

// Policies is the set of lenses that get a DefaultScale written.
type Policies []config.LensPolicy

// Match returns the policy whose name equals lens exactly. No trimming, no case folding:
// the lens string must be byte-for-byte what exiftool reports.
func (p Policies) Match(lens string) (config.LensPolicy, bool) {
	if lens == "" {
		return config.LensPolicy{}, false
	}
	for _, policy := range p {
		if policy.Name == lens {
			return policy, true
		}
	}
	return config.LensPolicy{}, false
}

// horizontal returns the first component of a "<h> <v>" scale, e.g. "1.33".
func horizontal(scale string) string {
	fields := strings.Fields(scale)
	if len(fields) == 0 {
		return scale
	}
	return fields[0]
}
