package checker

import (
	"fmt"

	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
)

// Risk-score weights and bands. The total of all weights is the score
// ceiling shown in the report.
const (
	riskWeightAlts       = 2
	riskWeightBlacklist  = 5
	riskWeightFriends    = 2
	riskWeightNewAccount = 3
	riskMaxScore         = riskWeightAlts + riskWeightBlacklist + riskWeightFriends + riskWeightNewAccount

	riskHighThreshold   = 7
	riskMediumThreshold = 4
)

// RiskScorePolicy is the alternate decision model: a weighted score over a
// subset of the signals, banded into low/medium/high. It deliberately does
// not evaluate tenure or tabular-source hits — its criteria are not an
// extension of the hard-fail model and the two are never merged. Unknown
// signals contribute nothing to the score.
type RiskScorePolicy struct {
	cfg config.CheckerConfig
}

func (p *RiskScorePolicy) Evaluate(ev *Evidence) models.Verdict {
	score := 0
	var factors []string

	if len(ev.Similar) > 0 {
		score += riskWeightAlts
		factors = append(factors, "Similar usernames detected")
	}
	if n := len(ev.Blacklisted); n > 0 {
		score += riskWeightBlacklist
		factors = append(factors, fmt.Sprintf("Member of %d blacklisted group(s)", n))
	}
	if ev.Friends.Known && ev.Friends.Value < p.cfg.MinFriends {
		score += riskWeightFriends
		factors = append(factors, "Low friend count")
	}
	if ev.AgeMonths.Known && ev.AgeMonths.Months < p.cfg.MinAccountAgeMonths {
		score += riskWeightNewAccount
		factors = append(factors, fmt.Sprintf("New account (< %d months)", int(p.cfg.MinAccountAgeMonths)))
	}

	level := "LOW RISK"
	outcome := models.OutcomePass
	switch {
	case score >= riskHighThreshold:
		level = "HIGH RISK"
		outcome = models.OutcomeFail
	case score >= riskMediumThreshold:
		level = "MEDIUM RISK"
	}

	fields := buildFields(ev, p.cfg)
	fields = append(fields,
		models.Field{Name: "Risk Level", Value: level},
		models.Field{Name: "Risk Score", Value: fmt.Sprintf("%d/%d", score, riskMaxScore)},
	)

	return models.Verdict{
		Outcome: outcome,
		Factors: factors,
		Fields:  fields,
	}
}
