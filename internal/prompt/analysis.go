package prompt

import (
	"fmt"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

const analysisSystem = "You are a careful B2B research assistant. You summarize professional profiles using only the facts you are given."

// BuildAnalysisPrompt asks for a short, fact-grounded plain-text summary of a prospect profile.
func BuildAnalysisPrompt(p *domain.Prospect) Prompt {
	user := fmt.Sprintf(`TASK:
Given the following profile data (JSON):

%s

Generate a concise 1-2 sentence professional summary of this prospect.

Requirements:
- Base the summary only on the provided data
- Focus on role, seniority, and domain
- Do not speculate or invent details
- Use neutral, professional tone
- Return plain text only (no markdown, no bullet points, no JSON)`, indentJSON(p.ProfileData))

	return Prompt{
		System: analysisSystem,
		User:   user,
	}
}
