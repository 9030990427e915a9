package importer

import (
	"fmt"
	"regexp"

	"github.com/mentha-app/mentha/internal/domain"
)

// NormalizeFitID derives the canonical transaction fit-id from the raw
// statement identifier. With no pattern the raw id passes through. A
// pattern must match from the start of the raw id and may carry at most
// one capture group: zero groups validate only, one group extracts.
func NormalizeFitID(raw string, pattern *string) (string, error) {
	if pattern == nil || *pattern == "" {
		return raw, nil
	}
	re, err := regexp.Compile(*pattern)
	if err != nil {
		return "", &domain.ValidationError{
			Msg: fmt.Sprintf("fit-id pattern %q does not compile: %v", *pattern, err),
		}
	}
	if re.NumSubexp() > 1 {
		return "", &domain.ValidationError{
			Msg: fmt.Sprintf("fit-id pattern %q has %d capture groups, at most one is allowed", *pattern, re.NumSubexp()),
		}
	}
	m := re.FindStringSubmatchIndex(raw)
	if m == nil || m[0] != 0 {
		return "", &domain.ValidationError{
			Msg: fmt.Sprintf("fit-id %q does not match pattern %q", raw, *pattern),
		}
	}
	if re.NumSubexp() == 0 {
		return raw, nil
	}
	if m[2] < 0 {
		return "", nil
	}
	return raw[m[2]:m[3]], nil
}
