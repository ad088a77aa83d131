package flow

import (
	"regexp"
	"strings"
)

// emailScanRegex finds an email address anywhere in a message.
var emailScanRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// namePatterns match common self-introduction phrasings, tried in order.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:my name is|i'?m|name is|i am)\s+([a-zA-Z\s]+?)(?:\s+and|$|\.|,)`),
	regexp.MustCompile(`(?i)([a-zA-Z\s]+)\s+(?:is my name|here)`),
	regexp.MustCompile(`(?i)^([a-zA-Z\s]+?)(?:\s+and|\s+email|\s*$)`),
}

// fillerWords are stripped from a matched name before it is accepted.
var fillerWords = regexp.MustCompile(`(?i)\b(my|name|is|and|email)\b`)

// introPhrases are stripped when a whole message is used as a name of last resort.
var introPhrases = regexp.MustCompile(`(?i)(my name is|i am|i'm|name is)`)

// ExtractNameEmail scrapes a name and an email address from a user message.
// Either result may be empty when nothing plausible is found.
func ExtractNameEmail(text string) (name, email string) {
	if m := emailScanRegex.FindString(text); m != "" {
		email = m
	}
	for _, p := range namePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := fillerWords.ReplaceAllString(m[1], "")
		candidate = strings.Join(strings.Fields(candidate), " ")
		if len(candidate) > 1 {
			name = candidate
			break
		}
	}
	return name, email
}

// CleanedName strips introduction phrases from a message and returns the
// remainder, falling back to the trimmed message itself. Used when pattern
// extraction finds nothing but the judge accepted the message as a name.
func CleanedName(text string) string {
	cleaned := strings.TrimSpace(introPhrases.ReplaceAllString(text, ""))
	if cleaned != "" {
		return cleaned
	}
	return strings.TrimSpace(text)
}

// companyWords mark a project as a company engagement.
var companyWords = []string{"company", "business", "organization", "firm"}

// ClassifyProjectType buckets a free-text answer into "company" or "personal".
func ClassifyProjectType(text string) string {
	lower := strings.ToLower(text)
	for _, w := range companyWords {
		if strings.Contains(lower, w) {
			return "company"
		}
	}
	return "personal"
}
