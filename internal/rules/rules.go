// Package rules evaluates categorization rules against transactions. A
// rule carries up to three criteria (name, amount, type); every criterion
// present must pass for the rule to match, and a rule with no criteria
// never matches anything.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mentha-app/mentha/internal/domain"
)

// Criterion is one matching condition of a rule.
type Criterion interface {
	// Matches reports whether the transaction satisfies the condition.
	Matches(txn domain.Transaction) (bool, error)
}

type nameCriterion struct {
	re *regexp.Regexp
}

func (c nameCriterion) Matches(txn domain.Transaction) (bool, error) {
	return c.re.MatchString(txn.Name), nil
}

type amountCriterion struct {
	op    string
	value decimal.Decimal
}

func (c amountCriterion) Matches(txn domain.Transaction) (bool, error) {
	amt := decimal.NewFromFloat(txn.Amt)
	switch c.op {
	case ">":
		return amt.GreaterThan(c.value), nil
	case "<":
		return amt.LessThan(c.value), nil
	case ">=":
		return amt.GreaterThanOrEqual(c.value), nil
	case "<=":
		return amt.LessThanOrEqual(c.value), nil
	default:
		return amt.Equal(c.value), nil
	}
}

type typeCriterion struct {
	txnType domain.TransactionType
}

func (c typeCriterion) Matches(txn domain.Transaction) (bool, error) {
	return txn.Type == c.txnType, nil
}

var amountExpr = regexp.MustCompile(`^(>=|<=|=|>|<)?(-?\d+(?:\.\d+)?)$`)

// ParseAmountExpr parses an amount expression such as ">=12.01", "<0" or
// "-123". A bare number compares with equality.
func ParseAmountExpr(expr string) (Criterion, error) {
	m := amountExpr.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, &domain.DataIntegrityError{
			Msg:   "amount expression must be an optional comparator followed by a number",
			Field: "matchAmt",
			Value: expr,
		}
	}
	value, err := decimal.NewFromString(m[2])
	if err != nil {
		return nil, &domain.DataIntegrityError{
			Msg:   fmt.Sprintf("amount expression holds an unparseable number: %v", err),
			Field: "matchAmt",
			Value: expr,
		}
	}
	op := m[1]
	if op == "" {
		op = "="
	}
	return amountCriterion{op: op, value: value}, nil
}

// Criteria builds the rule's criteria in a fixed order: name, amount,
// type. A malformed amount expression surfaces as a DataIntegrityError.
func Criteria(rule domain.Rule) ([]Criterion, error) {
	var crit []Criterion
	if rule.MatchName != nil {
		re, err := regexp.Compile("(?i)" + *rule.MatchName)
		if err != nil {
			return nil, &domain.DataIntegrityError{
				Msg:   "rule name pattern does not compile",
				Field: "matchName",
				Value: *rule.MatchName,
			}
		}
		crit = append(crit, nameCriterion{re: re})
	}
	if rule.MatchAmt != nil {
		c, err := ParseAmountExpr(*rule.MatchAmt)
		if err != nil {
			return nil, err
		}
		crit = append(crit, c)
	}
	if rule.MatchType != nil {
		crit = append(crit, typeCriterion{txnType: *rule.MatchType})
	}
	return crit, nil
}

// Evaluate reports whether the rule matches the transaction, returning
// the rule's result category on a match. A rule with no criteria never
// matches.
func Evaluate(rule domain.Rule, txn domain.Transaction) (uuid.UUID, bool, error) {
	crit, err := Criteria(rule)
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(crit) == 0 {
		return uuid.Nil, false, nil
	}
	for _, c := range crit {
		ok, err := c.Matches(txn)
		if err != nil {
			return uuid.Nil, false, err
		}
		if !ok {
			return uuid.Nil, false, nil
		}
	}
	return rule.ResultCategory, true, nil
}

// Apply evaluates rules in the given order and returns the result
// category of the first match. Callers pass rules already sorted by
// priority.
func Apply(rules []domain.Rule, txn domain.Transaction) (uuid.UUID, bool, error) {
	for _, rule := range rules {
		cat, ok, err := Evaluate(rule, txn)
		if err != nil {
			return uuid.Nil, false, err
		}
		if ok {
			return cat, true, nil
		}
	}
	return uuid.Nil, false, nil
}

// ValidateRule rejects rules whose criteria cannot be evaluated. It runs
// at write time so malformed expressions never reach storage.
func ValidateRule(rule domain.Rule) error {
	if rule.MatchName != nil {
		if _, err := regexp.Compile("(?i)" + *rule.MatchName); err != nil {
			return &domain.DataIntegrityError{
				Msg:   "rule name pattern does not compile",
				Field: "matchName",
				Value: *rule.MatchName,
			}
		}
	}
	if rule.MatchAmt != nil {
		if _, err := ParseAmountExpr(*rule.MatchAmt); err != nil {
			return err
		}
	}
	return nil
}
