package inquiry

import "strings"

// ServiceCategory is the lookup key into the estimate tables.
type ServiceCategory string

const (
	CategoryPythonAutomation ServiceCategory = "python automation"
	CategoryAIChatbot        ServiceCategory = "ai chatbot"
	CategoryWebDevelopment   ServiceCategory = "web development"
	CategorySEOAutomation    ServiceCategory = "seo automation"
)

// DefaultCategory is used when the service text names no known category.
const DefaultCategory = CategoryPythonAutomation

// serviceCategories is the match order; the first substring hit wins.
var serviceCategories = []ServiceCategory{
	CategoryPythonAutomation,
	CategoryAIChatbot,
	CategoryWebDevelopment,
	CategorySEOAutomation,
}

type rangeTable map[Complexity]string

type categoryRates struct {
	hours rangeTable
	cost  rangeTable
}

var rates = map[ServiceCategory]categoryRates{
	CategoryPythonAutomation: {
		hours: rangeTable{ComplexityLow: "10-20", ComplexityMedium: "20-40", ComplexityHigh: "40-80"},
		cost:  rangeTable{ComplexityLow: "500-1000", ComplexityMedium: "1000-2000", ComplexityHigh: "2000-4000"},
	},
	CategoryAIChatbot: {
		hours: rangeTable{ComplexityLow: "15-25", ComplexityMedium: "25-50", ComplexityHigh: "50-100"},
		cost:  rangeTable{ComplexityLow: "800-1500", ComplexityMedium: "1500-3000", ComplexityHigh: "3000-6000"},
	},
	CategoryWebDevelopment: {
		hours: rangeTable{ComplexityLow: "20-40", ComplexityMedium: "40-80", ComplexityHigh: "80-160"},
		cost:  rangeTable{ComplexityLow: "1000-2000", ComplexityMedium: "2000-4000", ComplexityHigh: "4000-8000"},
	},
	CategorySEOAutomation: {
		hours: rangeTable{ComplexityLow: "8-15", ComplexityMedium: "15-30", ComplexityHigh: "30-60"},
		cost:  rangeTable{ComplexityLow: "400-800", ComplexityMedium: "800-1500", ComplexityHigh: "1500-3000"},
	},
}

// Ranges returned for a complexity outside the known set.
const (
	fallbackHours = "20-40"
	fallbackCost  = "1000-2000"
)

// CategoryFor maps free-text service wording to a ServiceCategory.
func CategoryFor(service string) ServiceCategory {
	s := strings.ToLower(service)
	for _, c := range serviceCategories {
		if strings.Contains(s, string(c)) {
			return c
		}
	}
	return DefaultCategory
}

// ServiceCategories returns the known categories in match order.
func ServiceCategories() []ServiceCategory {
	out := make([]ServiceCategory, len(serviceCategories))
	copy(out, serviceCategories)
	return out
}
