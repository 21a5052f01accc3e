package render

import (
	"regexp"
	"strings"
)

var templateVarRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateContext contains values for template variable substitution.
type TemplateContext struct {
	Artist string
	Venue  string
	City   string
	Date   string // formatted for display
	Year   string
}

// ExpandTemplateVariables replaces template variables in text with values from context.
//
// Supported variables:
//   - {{Artist}} - Artist name
//   - {{Venue}} - Venue name
//   - {{City}} - City
//   - {{Date}} - Concert date as displayed on the card
//   - {{Year}} - Concert year
//   - {{Initials}} - Initials derived from the artist
func ExpandTemplateVariables(text string, ctx TemplateContext) string {
	return templateVarRegex.ReplaceAllStringFunc(text, func(match string) string {
		varName := match[2 : len(match)-2] // Remove {{ and }}
		switch varName {
		case "Artist":
			return ctx.Artist
		case "Venue":
			return ctx.Venue
		case "City":
			return ctx.City
		case "Date":
			return ctx.Date
		case "Year":
			return ctx.Year
		case "Initials":
			return ExtractInitials(ctx.Artist)
		default:
			return match // Keep unknown variables as-is
		}
	})
}

// ExtractInitials extracts initials from a name.
// "Dead Kennedys" -> "DK", "Bad Brains" -> "BB"
func ExtractInitials(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Fields(name)
	var initials strings.Builder
	for _, part := range parts {
		for _, r := range part {
			initials.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(initials.String())
}
