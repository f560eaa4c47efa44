package inquiry

import "strings"

// InquiryType is the coarse intent of the sender.
type InquiryType string

const (
	TypeGeneral      InquiryType = "general"
	TypePricing      InquiryType = "pricing"
	TypeConsultation InquiryType = "consultation"
	TypeSupport      InquiryType = "support"
	TypeTechnical    InquiryType = "technical"
)

// Complexity is the coarse project scope.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Urgency is informational only; it never feeds the estimate.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

type typeRule struct {
	typ      InquiryType
	keywords []string
}

// Checked in order; the first rule with a hit decides the type.
var typeRules = []typeRule{
	{TypePricing, []string{"quote", "price", "cost", "budget"}},
	{TypeConsultation, []string{"consultation", "meeting", "call", "discuss"}},
	{TypeSupport, []string{"help", "support", "problem", "issue"}},
	{TypeTechnical, []string{"python", "automation", "ai", "chatbot"}},
}

var (
	lowComplexityWords  = []string{"simple", "basic", "small"}
	highComplexityWords = []string{"complex", "enterprise", "large", "advanced"}

	highUrgencyWords = []string{"urgent", "asap", "immediately", "rush"}
	lowUrgencyWords  = []string{"when possible", "no rush", "flexible"}
)

// Classification is the classifier output for one inquiry.
type Classification struct {
	Type       InquiryType
	Complexity Complexity
	Urgency    Urgency
}

// Classify derives type, complexity and urgency from the message text.
// Keyword tests are plain substring checks on the lowercased message, so
// "discussed" counts as "discuss".
func Classify(fields FieldSet) Classification {
	message := strings.ToLower(fields.GetOr(FieldMessage, ""))
	return Classification{
		Type:       classifyType(message),
		Complexity: classifyComplexity(message),
		Urgency:    classifyUrgency(message),
	}
}

func classifyType(message string) InquiryType {
	for _, rule := range typeRules {
		if containsAny(message, rule.keywords) {
			return rule.typ
		}
	}
	return TypeGeneral
}

// Low wins over high when both sets appear.
func classifyComplexity(message string) Complexity {
	switch {
	case containsAny(message, lowComplexityWords):
		return ComplexityLow
	case containsAny(message, highComplexityWords):
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

// High wins over low when both sets appear.
func classifyUrgency(message string) Urgency {
	switch {
	case containsAny(message, highUrgencyWords):
		return UrgencyHigh
	case containsAny(message, lowUrgencyWords):
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
