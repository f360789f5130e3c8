package service

import (
	"strconv"
	"strings"

	"github.com/spec-kit/waitline/internal/domain"
)

// RenderTemplate substitutes {Placeholder} variables into a message body.
// Unmatched placeholders are left verbatim; escaping is the delivery channel's
// concern.
func RenderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}

// MessageVars assembles the standard placeholder set for one entry.
func MessageVars(restaurantName string, entry *domain.Entry) map[string]string {
	return map[string]string{
		"CustomerName":   entry.CustomerName,
		"RestaurantName": restaurantName,
		"Position":       strconv.Itoa(entry.Position),
		"PartySize":      strconv.Itoa(entry.PartySize),
		"Code":           entry.VerificationCode,
	}
}
