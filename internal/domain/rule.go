package domain

import "github.com/google/uuid"

// Rule assigns ResultCategory to transactions matching all of its present
// criteria. Rules are owned and evaluated in ascending Priority order;
// the first matching rule wins. A rule with no criteria matches nothing.
//
// MatchName is a case-insensitive regular expression searched against the
// transaction name. MatchAmt is `(op)?(number)` with op one of = > < >= <=
// (default =), compared against the signed amount. MatchType matches the
// credit/debit flag exactly.
type Rule struct {
	ID             uuid.UUID        `json:"id"`
	Priority       int              `json:"priority"`
	ResultCategory uuid.UUID        `json:"resultCategory"`
	Owner          uuid.UUID        `json:"owner"`
	MatchName      *string          `json:"matchName,omitempty"`
	MatchAmt       *string          `json:"matchAmt,omitempty"`
	MatchType      *TransactionType `json:"matchType,omitempty"`
}

// ExpandedRule is a Rule with its result category inlined.
type ExpandedRule struct {
	ID             uuid.UUID        `json:"id"`
	Priority       int              `json:"priority"`
	ResultCategory Category         `json:"resultCategory"`
	Owner          uuid.UUID        `json:"owner"`
	MatchName      *string          `json:"matchName,omitempty"`
	MatchAmt       *string          `json:"matchAmt,omitempty"`
	MatchType      *TransactionType `json:"matchType,omitempty"`
}

// RuleInput is the write shape for rules.
type RuleInput struct {
	Priority       int              `json:"priority"`
	ResultCategory uuid.UUID        `json:"resultCategory"`
	Owner          uuid.UUID        `json:"owner"`
	MatchName      *string          `json:"matchName,omitempty"`
	MatchAmt       *string          `json:"matchAmt,omitempty"`
	MatchType      *TransactionType `json:"matchType,omitempty"`
}

// DecodeRuleInput converts a RuleInput into a Rule under id. Criterion
// validation happens in the rules package at write time.
func DecodeRuleInput(id uuid.UUID, in RuleInput) Rule {
	return Rule{
		ID:             id,
		Priority:       in.Priority,
		ResultCategory: in.ResultCategory,
		Owner:          in.Owner,
		MatchName:      in.MatchName,
		MatchAmt:       in.MatchAmt,
		MatchType:      in.MatchType,
	}
}

// Expand attaches the result category record to the rule.
func (r Rule) Expand(cat Category) ExpandedRule {
	return ExpandedRule{
		ID:             r.ID,
		Priority:       r.Priority,
		ResultCategory: cat,
		Owner:          r.Owner,
		MatchName:      r.MatchName,
		MatchAmt:       r.MatchAmt,
		MatchType:      r.MatchType,
	}
}
