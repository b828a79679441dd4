package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finflow/finflow/internal/finance/domain"
)

const receiptPrompt = "You are a receipt parser for a personal finance app.\n\n" +
	"Task:\n" +
	"- Analyze the attached receipt image and extract the transaction details.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a single JSON object.\n\n" +
	"The object must have these fields:\n" +
	"- \"amount\": number (total amount paid)\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string (brief summary of the purchase)\n" +
	"- \"merchantName\": string\n" +
	"- \"category\": string (one of: housing, transportation, groceries, utilities, " +
	"entertainment, food, shopping, healthcare, education, travel, other-expense)\n\n" +
	"Rules:\n" +
	"- If the image is not a receipt, return an empty JSON object {}.\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n"

func buildInsightsPrompt(stats domain.MonthlyStats) string {
	var b strings.Builder
	b.WriteString("Analyze this monthly financial data and provide 3 concise, actionable insights.\n")
	b.WriteString("Focus on spending patterns and practical advice. Keep each insight under 25 words.\n\n")
	fmt.Fprintf(&b, "Financial data for %s:\n", stats.Month.Format("January 2006"))
	fmt.Fprintf(&b, "- Total income: %s\n", stats.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, "- Total expenses: %s\n", stats.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, "- Net: %s\n", stats.TotalIncome.Sub(stats.TotalExpenses).StringFixed(2))

	if len(stats.ByCategory) > 0 {
		b.WriteString("- Expenses by category:\n")
		categories := make([]string, 0, len(stats.ByCategory))
		for category := range stats.ByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Fprintf(&b, "  - %s: %s\n", category, stats.ByCategory[category].StringFixed(2))
		}
	}

	b.WriteString("\nReturn ONLY a raw JSON array of 3 insight strings.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n")
	return b.String()
}
