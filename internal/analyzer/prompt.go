package analyzer

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a nutrition expert. Analyze the food in this image. Answer in plain text without markdown.

Medical profile:
- Current conditions: %s
- Concerned conditions: %s

Use exactly these headers, each preceded by a line containing ---.

---
DISH:
One line naming the dish, no period.

---
KEY METRICS:
One line of estimates separated by |, for example:
Calories: 400-500 kcal | Protein: 25g | Carbs: 45g | Fat: 15g | Fiber: 5g | Sugar: 12g | Sodium: 800mg

---
CURRENT CONDITION SUMMARY:
%s
Give 2 to 4 points, one per line.

---
CONCERNED CONDITION SUMMARY:
%s
Give 2 to 4 points, one per line.

You may add one line "Health score: X/10".`

// BuildPrompt renders the instruction text sent alongside the image.
func BuildPrompt(req Request) string {
	current := "none"
	currentIns := "The user reports no current conditions. Give one or two sentences of general advice about this food."
	if req.Profile.HasCurrent() {
		current = strings.Join(req.Profile.Current, ", ")
		currentIns = "Explain how this food affects each current condition and whether to eat, limit or avoid it. Be specific, such as sodium for hypertension or sugar for diabetes."
	}

	concerned := "none"
	concernedIns := "The user has no specific concerns. Give one or two short preventive tips for this food."
	if req.Profile.HasConcerned() {
		concerned = strings.Join(req.Profile.Concerned, ", ")
		concernedIns = "For each condition the user wants to prevent, say what to watch or reduce in this food."
	}

	prompt := fmt.Sprintf(promptTemplate, current, concerned, currentIns, concernedIns)

	if q := strings.TrimSpace(req.Question); q != "" {
		prompt = fmt.Sprintf("User's description or question:\n%q\n\nTailor the analysis to it, then give the full assessment.\n\n%s", q, prompt)
	}
	return prompt
}
