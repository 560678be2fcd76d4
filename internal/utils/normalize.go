package utils

import "strings"

// NormalizeEnum brings a query value to enum spelling:
// "in progress" and "in-progress" both become "IN_PROGRESS".
func NormalizeEnum(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ToUpper(normalized)
	return normalized
}
