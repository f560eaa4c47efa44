package inquiry

import "fmt"

const (
	defaultContactName = "there"
	defaultServiceName = "our services"
)

var nextSteps = map[InquiryType][]string{
	TypePricing: {
		"Schedule discovery call to understand requirements",
		"Prepare detailed quote with project breakdown",
		"Send relevant case studies and testimonials",
	},
	TypeConsultation: {
		"Book consultation call",
		"Prepare agenda and questions",
		"Send calendar invite with meeting details",
	},
	TypeTechnical: {
		"Conduct technical assessment",
		"Review current systems and requirements",
		"Provide technical recommendations and roadmap",
	},
	TypeSupport: {
		"Understand the specific issue",
		"Provide immediate assistance if possible",
		"Schedule follow-up if needed",
	},
	TypeGeneral: {
		"Clarify specific requirements",
		"Provide relevant information about services",
		"Suggest appropriate next steps",
	},
}

// Suggest drafts a three-sentence reply for the operator to adapt.
// Support inquiries get the general wording.
func Suggest(typ InquiryType, complexity Complexity, fields FieldSet) []string {
	name := fields.GetOr(FieldName, defaultContactName)
	service := fields.GetOr(FieldService, defaultServiceName)

	switch typ {
	case TypePricing:
		// The quoted range is looked up here, independently of Analyze.
		cost := EstimateCost(complexity, service)
		return []string{
			fmt.Sprintf("Hi %s, thank you for your interest in %s. Based on your requirements, I'd estimate this project would range from £%s.", name, service, cost),
			"I'd love to provide you with a detailed quote. Could we schedule a 15-minute call to discuss your specific needs?",
			"I'll also send you some case studies of similar projects we've completed.",
		}
	case TypeConsultation:
		return []string{
			fmt.Sprintf("Hi %s, I'd be happy to schedule a consultation to discuss %s.", name, service),
			"I have availability this week for a 30-minute discovery call. What times work best for you?",
			"I'll prepare some initial ideas and questions based on your message.",
		}
	case TypeTechnical:
		return []string{
			fmt.Sprintf("Hi %s, thanks for reaching out about %s. This sounds like an interesting technical challenge.", name, service),
			"I'd recommend starting with a technical assessment to understand your current setup and requirements.",
			"I can provide some initial recommendations and a roadmap for implementation.",
		}
	default:
		return []string{
			fmt.Sprintf("Hi %s, thank you for your message about %s.", name, service),
			"I'd be happy to discuss how we can help with your project.",
			"Let me know if you'd like to schedule a call or if you have any specific questions.",
		}
	}
}

// NextSteps returns the recommended follow-up actions for an inquiry type.
// Unknown types get the general list.
func NextSteps(typ InquiryType) []string {
	steps, ok := nextSteps[typ]
	if !ok {
		steps = nextSteps[TypeGeneral]
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}
