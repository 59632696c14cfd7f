// Package codegen computes the human-readable project and campaign codes.
//
// Project codes look like PLN-25-007 and restart at 001 every two-digit year.
// Campaign codes append a letter to the owning project's code: PLN-25-007-A,
// -B, ... -Z, then the single overflow token -AA. The functions are pure; callers
// must run them inside the transaction that inserts the resulting code.
package codegen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	ProjectPrefix = "PLN"

	// CampaignOverflow is issued once after Z.
	CampaignOverflow = "AA"

	maxProjectSequence = 999
)

var (
	ErrMalformedCode      = errors.New("malformed code")
	ErrNamespaceExhausted = errors.New("code namespace exhausted")
)

// ProjectCode is a parsed PLN-YY-NNN code.
type ProjectCode struct {
	Year     int
	Sequence int
}

func (p ProjectCode) String() string {
	return fmt.Sprintf("%s-%02d-%03d", ProjectPrefix, p.Year, p.Sequence)
}

// ProjectNamespace is the counter key for a two-digit year.
func ProjectNamespace(year int) string {
	return fmt.Sprintf("project:%02d", year%100)
}

// CampaignNamespace is the counter key for a project's campaigns.
func CampaignNamespace(projectID uint64) string {
	return fmt.Sprintf("campaign:%d", projectID)
}

// PlanNamespace is the counter key for the plan creation order of a campaign.
func PlanNamespace(campaignID uint64) string {
	return fmt.Sprintf("plan:%d", campaignID)
}

func ParseProjectCode(code string) (ProjectCode, error) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || parts[0] != ProjectPrefix || len(parts[1]) != 2 || len(parts[2]) < 3 {
		return ProjectCode{}, fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 0 {
		return ProjectCode{}, fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return ProjectCode{}, fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	return ProjectCode{Year: year, Sequence: seq}, nil
}

// NextProjectCode returns the code following last in the given year's namespace.
// An empty last, or a last code from a different year, starts at 001.
func NextProjectCode(year int, last string) (string, error) {
	year = year % 100
	if last == "" {
		return ProjectCode{Year: year, Sequence: 1}.String(), nil
	}

	prev, err := ParseProjectCode(last)
	if err != nil {
		return "", err
	}
	if prev.Year != year {
		return ProjectCode{Year: year, Sequence: 1}.String(), nil
	}
	if prev.Sequence >= maxProjectSequence {
		return "", fmt.Errorf("%w: %s", ErrNamespaceExhausted, ProjectNamespace(year))
	}
	return ProjectCode{Year: year, Sequence: prev.Sequence + 1}.String(), nil
}

// SplitCampaignCode separates a campaign code into project code and suffix.
func SplitCampaignCode(code string) (projectCode, suffix string, err error) {
	idx := strings.LastIndex(code, "-")
	if idx <= 0 || idx == len(code)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	projectCode, suffix = code[:idx], code[idx+1:]
	if _, err := ParseProjectCode(projectCode); err != nil {
		return "", "", err
	}
	if !validSuffix(suffix) {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	return projectCode, suffix, nil
}

// NextCampaignSuffix returns the letter after last: "" → A, A..Y → next letter,
// Z → AA. Anything past Z yields AA again; callers detect the repeat.
func NextCampaignSuffix(last string) string {
	if last == "" {
		return "A"
	}
	if len(last) == 1 && last[0] >= 'A' && last[0] < 'Z' {
		return string(last[0] + 1)
	}
	return CampaignOverflow
}

// CampaignSuffixRank orders suffixes by issue position: A is 1, Z is 26 and
// AA is 27. Anything else ranks 0.
func CampaignSuffixRank(suffix string) int64 {
	if suffix == CampaignOverflow {
		return 27
	}
	if len(suffix) == 1 && suffix[0] >= 'A' && suffix[0] <= 'Z' {
		return int64(suffix[0]-'A') + 1
	}
	return 0
}

// NextCampaignCode returns the campaign code following last under projectCode.
// ErrNamespaceExhausted is returned once AA has been issued.
func NextCampaignCode(projectCode, last string) (string, error) {
	if _, err := ParseProjectCode(projectCode); err != nil {
		return "", err
	}

	lastSuffix := ""
	if last != "" {
		owner, suffix, err := SplitCampaignCode(last)
		if err != nil {
			return "", err
		}
		if owner != projectCode {
			return "", fmt.Errorf("%w: %q does not belong to %s", ErrMalformedCode, last, projectCode)
		}
		lastSuffix = suffix
	}

	next := NextCampaignSuffix(lastSuffix)
	if next == lastSuffix {
		return "", fmt.Errorf("%w: campaigns of %s", ErrNamespaceExhausted, projectCode)
	}
	return projectCode + "-" + next, nil
}

// DefaultPlanName names the n-th plan created in a campaign.
func DefaultPlanName(n int64) string {
	return fmt.Sprintf("Plan%d", n)
}

func validSuffix(s string) bool {
	if s == CampaignOverflow {
		return true
	}
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}
