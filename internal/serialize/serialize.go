// Package serialize projects a session record into a deterministic
// natural-language text block. The text is both the embedding input and the
// retrieval context shown to the language model, so the projection must be a
// pure function of the record's header fields and payload.
package serialize

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Rishi-Sarmah/hrms-protocole/internal/models"
)

// topBudgetRows caps how many rows of a budget group are spelled out.
const topBudgetRows = 5

// FormatNumber renders a magnitude compactly: plain "0" for zero, two-decimal
// "M" at or above one million, one-decimal "K" at or above one thousand,
// otherwise an integer. Compact notation keeps the serialized text dense and
// semantically matchable ("1.50M" rather than "1500000").
func FormatNumber(n float64) string {
	switch {
	case n == 0:
		return "0"
	case math.Abs(n) >= 1_000_000:
		return fmt.Sprintf("%.2fM", n/1_000_000)
	case math.Abs(n) >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// executionRate is achievement over forecast as a one-decimal percentage,
// "N/A" when the forecast is zero.
func executionRate(forecast, achievement float64) string {
	if forecast == 0 {
		return "N/A"
	}

	return fmt.Sprintf("%.1f%%", achievement/forecast*100)
}

// formatDate renders an ISO date in a locale-stable short form ("Jan 2, 2006").
// Unparseable input is returned verbatim so serialization stays total.
func formatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, iso); err != nil {
			return iso
		}
	}

	return t.Format("Jan 2, 2006")
}

// Session serializes a session record. It never fails: absent or empty
// sections are simply omitted, and a record with no payload yields only the
// header line.
func Session(doc *models.Session) string {
	if doc == nil {
		return ""
	}

	parts := []string{headerLine(doc)}

	data := doc.Data
	if data == nil {
		return strings.Join(parts, "\n")
	}

	if p := personnelBlock(data); p != "" {
		parts = append(parts, p)
	}

	if b := budgetBlock(data.Budget); b != "" {
		parts = append(parts, b)
	}

	parts = append(parts, exploitationBlocks(data.Exploitation)...)

	return strings.Join(parts, "\n")
}

func headerLine(doc *models.Session) string {
	name := doc.SessionName
	if name == "" {
		name = "Unnamed Session"
	}

	desc := ""
	if doc.Description != nil && *doc.Description != "" {
		desc = " — " + *doc.Description
	}

	period := ""
	if doc.StartDate != nil && *doc.StartDate != "" && doc.EndDate != nil && *doc.EndDate != "" {
		period = fmt.Sprintf(" (%s to %s)", formatDate(*doc.StartDate), formatDate(*doc.EndDate))
	}

	return fmt.Sprintf("Session: %q%s%s.", name, desc, period)
}

func personnelBlock(data *models.SessionData) string {
	if len(data.Staff) == 0 {
		return ""
	}

	var totalMale, totalFemale int

	type sexSplit struct{ male, female int }

	categories := make(map[string]*sexSplit)
	order := make([]string, 0, len(data.Staff))

	for _, row := range data.Staff {
		totalMale += row.Male
		totalFemale += row.Female

		cat := row.Category
		if cat == "" {
			cat = "Other"
		}

		if _, ok := categories[cat]; !ok {
			categories[cat] = &sexSplit{}

			order = append(order, cat)
		}

		categories[cat].male += row.Male
		categories[cat].female += row.Female
	}

	catParts := make([]string, 0, len(order))
	for _, cat := range order {
		c := categories[cat]
		catParts = append(catParts, fmt.Sprintf("%s: %d (%dM/%dF)", cat, c.male+c.female, c.male, c.female))
	}

	return fmt.Sprintf(
		"Personnel: %d total staff (%d male, %d female). Management cadre: %d. Salary mass: %s CDF. By category — %s.",
		totalMale+totalFemale, totalMale, totalFemale,
		data.ManagementCount,
		FormatNumber(data.SalaryMassCDF),
		strings.Join(catParts, "; "),
	)
}

// summarizeBudgetGroup renders one forecast/achievement row-group: totals,
// execution rate, and up to the top rows by achievement.
func summarizeBudgetGroup(label string, rows []models.BudgetRow) string {
	if len(rows) == 0 {
		return ""
	}

	var totalForecast, totalAchievement float64
	for _, r := range rows {
		totalForecast += r.Forecast
		totalAchievement += r.Achievement
	}

	active := make([]models.BudgetRow, 0, len(rows))

	for _, r := range rows {
		if r.Forecast > 0 || r.Achievement > 0 {
			active = append(active, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Achievement > active[j].Achievement
	})

	if len(active) > topBudgetRows {
		active = active[:topBudgetRows]
	}

	topParts := make([]string, 0, len(active))
	for _, r := range active {
		topParts = append(topParts, fmt.Sprintf("%s: forecast %s, achieved %s (%s)",
			r.Label, FormatNumber(r.Forecast), FormatNumber(r.Achievement), executionRate(r.Forecast, r.Achievement)))
	}

	out := fmt.Sprintf("%s: total forecast %s, achieved %s (%s). ",
		label, FormatNumber(totalForecast), FormatNumber(totalAchievement), executionRate(totalForecast, totalAchievement))
	if len(topParts) > 0 {
		out += fmt.Sprintf("Top items — %s.", strings.Join(topParts, "; "))
	}

	return out
}

func budgetBlock(b *models.BudgetData) string {
	if b == nil {
		return ""
	}

	var receiptsTotal, disbursementsTotal float64

	for _, r := range b.TreasuryReceipts {
		receiptsTotal += r.Achievement
	}

	for _, r := range b.TreasuryDisbursements {
		disbursementsTotal += r.Achievement
	}

	return fmt.Sprintf("Budget: %s %s Treasury: receipts %s, disbursements %s, balance %s.",
		summarizeBudgetGroup("Production", b.Production),
		summarizeBudgetGroup("Charges", b.Charges),
		FormatNumber(receiptsTotal),
		FormatNumber(disbursementsTotal),
		FormatNumber(receiptsTotal-disbursementsTotal),
	)
}

func exploitationBlocks(ex *models.ExploitationData) []string {
	if ex == nil {
		return nil
	}

	var parts []string

	if op := operatingLine(ex.OperatingData); op != "" {
		parts = append(parts, "Exploitation — Operating data: "+op+".")
	}

	if s := countLine(ex.Failures); s != "" {
		parts = append(parts, "Failures/Damages: "+s+".")
	}

	if lab := labAnalysisLine(ex.LabAnalysis); lab != "" {
		parts = append(parts, lab)
	}

	if s := countLine(ex.Metrology); s != "" {
		parts = append(parts, "Metrology: "+s+".")
	}

	if s := countLine(ex.TechnicalControl); s != "" {
		parts = append(parts, "Technical Control: "+s+".")
	}

	return parts
}

func operatingLine(rows []models.OperatingRow) string {
	var parts []string

	for _, r := range rows {
		if r.Volume.Kgs <= 0 && r.Value.CIF <= 0 && r.Value.FOB <= 0 {
			continue
		}

		var fields []string

		if r.Volume.Kgs > 0 {
			fields = append(fields, FormatNumber(r.Volume.Kgs)+" kgs")
		}

		switch {
		case r.Value.CIF > 0:
			fields = append(fields, "CIF "+FormatNumber(r.Value.CIF))
		case r.Value.FOB > 0:
			fields = append(fields, "FOB "+FormatNumber(r.Value.FOB))
		}

		parts = append(parts, fmt.Sprintf("%s %s: %s", r.Category, r.Subcategory, strings.Join(fields, ", ")))
	}

	return strings.Join(parts, "; ")
}

func countLine(rows []models.CountRow) string {
	var parts []string

	for _, r := range rows {
		if r.Count <= 0 {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, FormatNumber(r.Count)))
	}

	return strings.Join(parts, "; ")
}

func labAnalysisLine(rows []models.LabAnalysisRow) string {
	if len(rows) == 0 {
		return ""
	}

	var totalReceived, totalAnalyzed, totalNonCompliant float64

	for _, r := range rows {
		totalReceived += r.Received
		totalAnalyzed += r.Analyzed
		totalNonCompliant += r.NonCompliant
	}

	complianceRate := "N/A"
	if totalAnalyzed > 0 {
		complianceRate = fmt.Sprintf("%.1f", (totalAnalyzed-totalNonCompliant)/totalAnalyzed*100)
	}

	var details []string

	for _, r := range rows {
		if r.Received <= 0 {
			continue
		}

		name := r.Product
		if name == "" {
			name = r.Category
		}

		details = append(details, fmt.Sprintf("%s: %.0f received, %.0f analyzed, %.0f non-compliant",
			name, r.Received, r.Analyzed, r.NonCompliant))
	}

	return fmt.Sprintf("Lab Analysis: %.0f total samples received, %.0f analyzed, %.0f non-compliant (%s%% compliance). Breakdown — %s.",
		totalReceived, totalAnalyzed, totalNonCompliant, complianceRate, strings.Join(details, "; "))
}
