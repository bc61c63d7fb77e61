package handler

import (
	"fmt"
	"strings"

	"tg-bgcheck/internal/blacklist"
	"tg-bgcheck/internal/checker"
	"tg-bgcheck/internal/models"
)

// messageLimit keeps chunks under Telegram's 4096-character message cap
// with headroom for HTML tags.
const messageLimit = 4000

func profileURL(id int64) string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", id)
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func linkedIdentity(ident models.Identity) string {
	return fmt.Sprintf("<a href=\"%s\">%s</a> | <code>%d</code>",
		profileURL(ident.ID), escapeHTML(ident.Handle), ident.ID)
}

// renderReport formats a full background-check report as HTML.
func renderReport(report *checker.Report) string {
	var b strings.Builder

	b.WriteString("<b>Background Check Report</b>\n")
	b.WriteString("Target: " + linkedIdentity(report.Identity) + "\n\n")

	for _, field := range report.Verdict.Fields {
		fmt.Fprintf(&b, "<b>%s:</b> %s\n", escapeHTML(field.Name), escapeHTML(field.Value))
	}

	if len(report.Verdict.Factors) > 0 {
		b.WriteString("\n<b>Factors:</b>\n")
		for _, f := range report.Verdict.Factors {
			b.WriteString("• " + escapeHTML(f) + "\n")
		}
	}

	b.WriteString("\n<b>Result:</b> ")
	if report.Verdict.Outcome == models.OutcomeFail {
		b.WriteString("❌ Failed")
	} else {
		b.WriteString("✅ Passed")
	}
	return b.String()
}

// renderScan formats an associate-scan report as HTML.
func renderScan(report *checker.ScanReport) string {
	var b strings.Builder

	b.WriteString("<b>Associate Scan</b>\n")
	b.WriteString("Target: " + linkedIdentity(report.Identity) + "\n")
	fmt.Fprintf(&b, "Scanned %d friend(s)\n", report.Scanned)

	if len(report.Flagged) == 0 {
		b.WriteString("\n✅ No friends found on any blacklist")
		return b.String()
	}

	fmt.Fprintf(&b, "\n⚠️ <b>%d flagged:</b>\n", len(report.Flagged))
	for _, assoc := range report.Flagged {
		fmt.Fprintf(&b, "• %s — %s\n", linkedIdentity(assoc.Identity), escapeHTML(strings.Join(assoc.Hits, ", ")))
	}
	return b.String()
}

// renderRefresh formats per-source refresh results.
func renderRefresh(results []blacklist.SourceResult) string {
	lines := make([]string, 0, len(results))
	for _, res := range results {
		if res.OK {
			lines = append(lines, fmt.Sprintf("✅ %s — %d entries loaded", escapeHTML(res.Name), res.Count))
		} else {
			lines = append(lines, fmt.Sprintf("❌ %s — refresh failed, previous data kept", escapeHTML(res.Name)))
		}
	}
	return strings.Join(lines, "\n")
}

// splitMessage breaks text into chunks at newline boundaries where possible.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
