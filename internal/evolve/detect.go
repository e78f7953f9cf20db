package evolve

import "strings"

// ProblemCustom is returned when no known problem keyword is found.
const ProblemCustom = "custom"

// problemKeywords is checked in order; the first hit wins.
var problemKeywords = []struct {
	id       string
	keywords []string
}{
	{"pdptw", []string{"pdptw", "pickup and delivery", "pickup-delivery"}},
	{"jssp", []string{"jssp", "job shop", "job-shop", "jobshop"}},
	{"cwlp", []string{"cwlp", "warehouse location", "facility location"}},
	{"mcnd", []string{"mcnd", "network design"}},
	{"imo6", []string{"imo6"}},
	{"tsp", []string{"tsp", "traveling salesman", "travelling salesman"}},
}

// DetectProblem guesses the problem type of an uploaded model from its file
// name, then from its content. Matching is a case-insensitive substring test.
func DetectProblem(filename, content string) string {
	if id := matchKeywords(strings.ToLower(filename)); id != "" {
		return id
	}
	if id := matchKeywords(strings.ToLower(content)); id != "" {
		return id
	}
	return ProblemCustom
}

func matchKeywords(s string) string {
	if s == "" {
		return ""
	}
	for _, p := range problemKeywords {
		for _, kw := range p.keywords {
			if strings.Contains(s, kw) {
				return p.id
			}
		}
	}
	return ""
}
