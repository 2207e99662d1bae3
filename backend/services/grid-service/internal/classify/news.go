package classify

import (
	"strings"

	"gridpulse/backend/services/grid-service/internal/models"
)

var (
	alertKeywords  = []string{"warning", "urgent", "notice"}
	updateKeywords = []string{"update", "new", "announce"}
)

// NewsType labels a headline by case-insensitive keyword search. Alert keywords take
// precedence over update keywords; anything else is info.
func NewsType(title string) models.NewsType {
	lower := strings.ToLower(title)
	switch {
	case containsAny(lower, alertKeywords):
		return models.NewsAlert
	case containsAny(lower, updateKeywords):
		return models.NewsUpdate
	default:
		return models.NewsInfo
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
