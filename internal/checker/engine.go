package checker

import (
	"fmt"
	"strings"

	"tg-bgcheck/internal/config"
	"tg-bgcheck/internal/models"
)

// DecisionPolicy turns gathered evidence into a verdict. Policies are
// selected at configuration time and never mixed.
type DecisionPolicy interface {
	Evaluate(ev *Evidence) models.Verdict
}

// PolicyFromConfig selects the configured decision policy, defaulting to
// the hard-fail model.
func PolicyFromConfig(cfg config.CheckerConfig) DecisionPolicy {
	if strings.EqualFold(cfg.Policy, "riskscore") {
		return &RiskScorePolicy{cfg: cfg}
	}
	return &HardFailPolicy{cfg: cfg}
}

// HardFailPolicy is the default decision model: a fixed set of hard-fail
// contributors (blacklisted groups, active source hits, verified-low friend
// count, verified-young account) forces FAIL; everything else is
// informational. Factors are reported in fixed evaluation order — alts,
// groups, tabular sources in declared order, friends, age, tenure —
// regardless of which ones fired.
type HardFailPolicy struct {
	cfg config.CheckerConfig
}

func (p *HardFailPolicy) Evaluate(ev *Evidence) models.Verdict {
	var factors []string
	hardFail := false

	if n := len(ev.Similar); n > 0 {
		factors = append(factors, fmt.Sprintf("Suspicious alts detected (%d)", n))
	}

	if n := len(ev.Blacklisted); n > 0 {
		factors = append(factors, fmt.Sprintf("In %d blacklisted group(s)", n))
		hardFail = true
	}

	for _, hit := range ev.SourceHits {
		if hit.Record == nil {
			continue
		}
		if hit.Record.Retracted {
			factors = append(factors, fmt.Sprintf("Retracted entry in %s", hit.SourceName))
		} else {
			factors = append(factors, fmt.Sprintf("Found in %s", hit.SourceName))
			hardFail = true
		}
	}

	if ev.Friends.Known && ev.Friends.Value < p.cfg.MinFriends {
		factors = append(factors, fmt.Sprintf("Low friend count (%d)", ev.Friends.Value))
		hardFail = true
	}

	if ev.AgeMonths.Known && ev.AgeMonths.Months < p.cfg.MinAccountAgeMonths {
		factors = append(factors, fmt.Sprintf("Account under %d months (%d months old)",
			int(p.cfg.MinAccountAgeMonths), int(ev.AgeMonths.Months)))
		hardFail = true
	}

	// Short tenure is a factor but never a hard-fail contributor.
	if ev.Tenure.Member && ev.Tenure.Months.Known && ev.Tenure.Months.Months < p.cfg.MinTenureMonths {
		factors = append(factors, fmt.Sprintf("In %s for less than %d months (%d months)",
			p.cfg.TenureGroupName, int(p.cfg.MinTenureMonths), int(ev.Tenure.Months.Months)))
	}

	outcome := models.OutcomePass
	if hardFail {
		outcome = models.OutcomeFail
	}

	return models.Verdict{
		Outcome: outcome,
		Factors: factors,
		Fields:  buildFields(ev, p.cfg),
	}
}

// buildFields renders the per-field display values all policies share.
// Every field is always present; a signal that could not be verified shows
// an explicit Unknown rather than disappearing from the report.
func buildFields(ev *Evidence, cfg config.CheckerConfig) []models.Field {
	fields := []models.Field{
		{Name: "Suspicious Alts", Value: altsValue(ev.Similar)},
		{Name: "Blacklisted (Groups)", Value: blacklistedGroupsValue(ev)},
	}

	for _, hit := range ev.SourceHits {
		fields = append(fields, models.Field{
			Name:  fmt.Sprintf("Blacklisted (%s)", hit.SourceName),
			Value: sourceHitValue(hit.Record),
		})
	}

	fields = append(fields,
		models.Field{Name: "Affiliations", Value: affiliationsValue(ev)},
		models.Field{Name: "Badges", Value: badgesValue(ev.Badges)},
		models.Field{Name: fmt.Sprintf("Friends ≥ %d", cfg.MinFriends), Value: thresholdValue(ev.Friends, cfg.MinFriends)},
		models.Field{Name: fmt.Sprintf("Account %d+ months", int(cfg.MinAccountAgeMonths)), Value: ageValue(ev.AgeMonths, cfg.MinAccountAgeMonths)},
		models.Field{Name: fmt.Sprintf("In %s %d+ months", cfg.TenureGroupName, int(cfg.MinTenureMonths)), Value: tenureValue(ev.Tenure, cfg.MinTenureMonths)},
	)
	return fields
}

func altsValue(similar []models.Identity) string {
	if len(similar) == 0 {
		return "None"
	}
	names := make([]string, 0, 5)
	for i, u := range similar {
		if i == 5 {
			break
		}
		names = append(names, u.Handle)
	}
	value := strings.Join(names, ", ")
	if len(similar) > 5 {
		value += fmt.Sprintf(" (+%d more)", len(similar)-5)
	}
	return value
}

func blacklistedGroupsValue(ev *Evidence) string {
	if !ev.GroupsKnown {
		return "Unknown"
	}
	if len(ev.Blacklisted) == 0 {
		return "No"
	}
	names := make([]string, 0, 3)
	for i, g := range ev.Blacklisted {
		if i == 3 {
			break
		}
		names = append(names, g.GroupName)
	}
	value := strings.Join(names, ", ")
	if len(ev.Blacklisted) > 3 {
		value += fmt.Sprintf(" (+%d more)", len(ev.Blacklisted)-3)
	}
	return value
}

func sourceHitValue(rec *models.BlacklistRecord) string {
	if rec == nil {
		return "No"
	}

	subject := rec.SubjectHandle
	if subject == "" {
		subject = rec.SubjectID
	}
	if rec.Retracted {
		return fmt.Sprintf("Retracted — %s", subject)
	}

	length := rec.BanLength
	if length == "" {
		length = "Not specified"
	}
	value := fmt.Sprintf("Yes — %s; Length: %s; Appealable: %s", subject, length, rec.Appealable)
	if rec.Reason != "" {
		value += "; Reason: " + rec.Reason
	}
	return value
}

func affiliationsValue(ev *Evidence) string {
	if !ev.GroupsKnown {
		return "Unknown"
	}
	if len(ev.Groups) == 0 {
		return "None"
	}
	return fmt.Sprintf("%d group(s)", len(ev.Groups))
}

func badgesValue(badges models.IntSignal) string {
	if !badges.Known {
		return "Unknown"
	}
	return fmt.Sprintf("%d", badges.Value)
}

func thresholdValue(sig models.IntSignal, min int) string {
	if !sig.Known {
		return "Unknown"
	}
	if sig.Value >= min {
		return fmt.Sprintf("Yes (%d)", sig.Value)
	}
	return fmt.Sprintf("No (%d)", sig.Value)
}

func ageValue(age models.MonthsSignal, min float64) string {
	if !age.Known {
		return "Unknown"
	}
	if age.Months >= min {
		return fmt.Sprintf("Yes (%d months)", int(age.Months))
	}
	return fmt.Sprintf("No (%d months)", int(age.Months))
}

func tenureValue(t TenureEvidence, min float64) string {
	if !t.Member {
		return "Not a member"
	}
	if !t.Months.Known {
		return "Member (join date unavailable)"
	}
	if t.Months.Months >= min {
		return fmt.Sprintf("Yes (%d months)", int(t.Months.Months))
	}
	return fmt.Sprintf("No (%d months)", int(t.Months.Months))
}
