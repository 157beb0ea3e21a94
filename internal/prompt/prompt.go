// Package prompt builds provider-agnostic prompts from raw log text.
// Templates are data; swapping them never touches the aggregation engine.
package prompt

import "strings"

// WeeklySummary renders the weekly-report prompt. The model is asked for a
// strict JSON object matching the WeeklySummary shape the frontend consumes;
// the caller must still tolerate deviation when parsing.
func WeeklySummary(logLines []string) string {
	var b strings.Builder

	b.WriteString("You are a professional senior productivity consultant. ")
	b.WriteString("Generate a weekly report summary from the log entries below.\n")
	b.WriteString("Requirements: 1. Output strict JSON and nothing else. ")
	b.WriteString("2. The executive summary must acknowledge accomplishments.\n\n")

	b.WriteString("LOG ENTRIES:\n")
	for _, line := range logLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(`
Reference JSON output format:
{
  "executiveSummary": "summary text...",
  "focusAreas": [{ "name": "area", "percentage": 80 }],
  "pulseStats": { "completed": 5, "completedChange": 1, "deepWorkHours": 10, "deepWorkAvg": 2 },
  "highlights": [{ "title": "highlight", "description": "details", "icon": "emoji", "category": "category", "timestamp": "time" }],
  "nextWeekSuggestions": ["suggestion"]
}
`)

	return b.String()
}

// DailyInsight renders the daily-aggregation prompt. Unlike the weekly
// report this asks for free text, structured into three fixed sections.
func DailyInsight(logLines []string) string {
	var b strings.Builder

	b.WriteString("You are a ruthlessly effective productivity coach. ")
	b.WriteString("Below are the user's fragmented notes and thoughts from today:\n")
	for _, line := range logLines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(`
Distill these records into a thoughtful "Daily Insight".
Requirements:
1. Concise, professional and inspiring in tone.
2. Clearly structured, containing:
   - Core items summary
   - Key insights and reflections
   - Next-step action suggestions
3. Moderate length, no filler.
`)

	return b.String()
}
