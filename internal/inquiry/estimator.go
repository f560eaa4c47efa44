package inquiry

// Estimate is an hour range and a cost range, e.g. "20-40" and "1000-2000".
type Estimate struct {
	Hours string
	Cost  string
}

// EstimateProject looks up both ranges for the complexity and service text.
func EstimateProject(complexity Complexity, service string) Estimate {
	return Estimate{
		Hours: EstimateHours(complexity, service),
		Cost:  EstimateCost(complexity, service),
	}
}

// EstimateHours returns the hour range for the complexity and service text.
func EstimateHours(complexity Complexity, service string) string {
	if h, ok := rates[CategoryFor(service)].hours[complexity]; ok {
		return h
	}
	return fallbackHours
}

// EstimateCost returns the cost range for the complexity and service text.
func EstimateCost(complexity Complexity, service string) string {
	if c, ok := rates[CategoryFor(service)].cost[complexity]; ok {
		return c
	}
	return fallbackCost
}
