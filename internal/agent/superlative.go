// README: Keyword-based superlative detection ("el más barato").
package agent

import "strings"

// Superlative names the comparison a message asks for over the shown options.
type Superlative int

const (
	SuperlativeNone Superlative = iota
	SuperlativeMostExpensive
	SuperlativeCheapest
	SuperlativeBestRated
)

// SuperlativeDetector is deliberately a narrow interface: the keyword
// matcher below can be swapped for something smarter without touching the
// selection heuristic.
type SuperlativeDetector interface {
	Detect(message string) Superlative
}

type keywordDetector struct{}

// NewSuperlativeDetector returns the default keyword matcher.
func NewSuperlativeDetector() SuperlativeDetector {
	return keywordDetector{}
}

var superlativeKeywords = []struct {
	value    Superlative
	keywords []string
}{
	{SuperlativeMostExpensive, []string{"más caro", "mas caro", "más costoso", "mas costoso", "más costosa", "mas costosa", "más cara", "mas cara"}},
	{SuperlativeCheapest, []string{"más barato", "mas barato", "más barata", "mas barata", "más económico", "mas economico", "más económica", "mas economica"}},
	{SuperlativeBestRated, []string{"mejor valorado", "mejor valorada", "mejor calificado", "mejor calificada", "mejor puntuado", "mejor puntuada"}},
}

func (keywordDetector) Detect(message string) Superlative {
	msg := strings.ToLower(message)
	for _, entry := range superlativeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(msg, kw) {
				return entry.value
			}
		}
	}
	return SuperlativeNone
}
