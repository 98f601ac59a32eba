// Package policy holds the pure risk-scoring rules. Everything here is a
// function of its inputs; thresholds come from configuration.
package policy

import (
	"strconv"
	"strings"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
)

// Regulatory status labels assigned by Classify. LabelOK is the default
// for swept contracts that never triggered a proposal.
const (
	LabelOK          = "OK"
	LabelHighRisk    = "High Risk"
	LabelNeedsUpdate = "Needs Update"
	LabelMonitor     = "Monitor"
)

// Evaluate maps a compliance result to a record status and a notify flag.
// A record is non-compliant only when the checker reported concrete
// violations and the score reached the configured threshold.
func Evaluate(violations []string, score, threshold int) (model.Status, bool) {
	if len(violations) > 0 && score >= threshold {
		return model.StatusNonCompliant, true
	}
	return model.StatusCompliant, false
}

// ClampScore bounds a checker-reported score to the 0-100 scale.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// KeywordScore returns the percentage of regulation keywords that appear
// in the contract text.
func KeywordScore(keywords []string, text string) int {
	if len(keywords) == 0 || text == "" {
		return 0
	}
	t := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits * 100 / len(keywords)
}

// KeywordMatches returns the regulation keywords found in the text.
func KeywordMatches(keywords []string, text string) []string {
	t := strings.ToLower(text)
	var matches []string
	for _, kw := range keywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// JurisdictionBoost rewards regulations that apply where the contract is
// governed: +30 for an exact match, +10 for global regulations.
func JurisdictionBoost(regJurisdiction, contractJurisdiction string) int {
	r := strings.ToLower(strings.TrimSpace(regJurisdiction))
	if r == "" {
		return 0
	}
	if r == "global" {
		return 10
	}
	if r == strings.ToLower(strings.TrimSpace(contractJurisdiction)) {
		return 30
	}
	return 0
}

// AgePenalty adds up to 10 points for contracts not updated in over
// three years. lastUpdated is any string starting with a 4-digit year.
func AgePenalty(lastUpdated string, now time.Time) int {
	if len(lastUpdated) < 4 {
		return 0
	}
	year, err := strconv.Atoi(lastUpdated[:4])
	if err != nil {
		return 0
	}
	age := now.Year() - year
	if age <= 3 {
		return 0
	}
	penalty := (age - 3) * 2
	if penalty > 10 {
		penalty = 10
	}
	return penalty
}

// AgeBucket labels how long ago a contract was last updated, for the
// dashboard. lastUpdated is any string starting with a 4-digit year;
// anything else yields "Unknown".
func AgeBucket(lastUpdated string, now time.Time) string {
	if len(lastUpdated) < 4 {
		return "Unknown"
	}
	year, err := strconv.Atoi(lastUpdated[:4])
	if err != nil {
		return "Unknown"
	}
	age := now.Year() - year
	if age < 0 {
		age = 0
	}
	switch {
	case age <= 1:
		return "Up to 1 year"
	case age <= 3:
		return "1-3 years"
	case age <= 6:
		return "3-6 years"
	default:
		return "6+ years"
	}
}

// RegulatoryRisk combines the keyword, jurisdiction and age signals for
// one (regulation, contract) pair into a 0-100 score.
func RegulatoryRisk(reg model.Regulation, contractJurisdiction, lastUpdated, text string, now time.Time) int {
	raw := KeywordScore(reg.Keywords, text) +
		JurisdictionBoost(reg.Jurisdiction, contractJurisdiction) +
		AgePenalty(lastUpdated, now)
	if raw > 100 {
		return 100
	}
	return raw
}

// Classify maps a regulatory risk score to a human-facing status label.
func Classify(risk int) string {
	switch {
	case risk >= 75:
		return LabelHighRisk
	case risk >= 50:
		return LabelNeedsUpdate
	default:
		return LabelMonitor
	}
}
