package locations

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scholarmap/pkg/models"
)

// AllTypes is the radio choice that disables the type filter.
const AllTypes = "All"

// TypeChoices are the radio buttons offered by the page, in order.
var TypeChoices = []string{AllTypes, "Bar", "Food", "Activity"}

// Query is the user's current selection.
type Query struct {
	Type string // "All", "" or a location type
	Text string // free-text search
}

// NormalizeType title-cases a type selection the way rows store it
// ("food" -> "Food"). Casers keep state, so each call gets its own.
func NormalizeType(t string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(t))
}

// Filter keeps rows whose type equals the title-cased selection (unless it
// is "All" or empty) and where the search text occurs, case-insensitively,
// in the string form of at least one column. Empty text matches every row.
func Filter(rows []models.Location, q Query) []models.Location {
	wantType := NormalizeType(q.Type)
	if strings.EqualFold(wantType, AllTypes) {
		wantType = ""
	}
	needle := strings.ToLower(q.Text)

	out := make([]models.Location, 0, len(rows))
	for _, l := range rows {
		if wantType != "" && l.Type != wantType {
			continue
		}
		if !matchesText(l, needle) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// matchesText expects needle already lower-cased.
func matchesText(l models.Location, needle string) bool {
	if needle == "" {
		return true
	}
	for _, v := range columnValues(l) {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// columnValues is every column rendered as text; a NULL tag is "".
// Coordinates appear twice: shortest form and the column's fixed
// 13-digit scale, so "38.9072" and "38.9072000" both match.
func columnValues(l models.Location) []string {
	return []string{
		l.Name,
		l.City,
		l.Type,
		l.TypeSpecial,
		l.Address,
		l.Vibe,
		l.Rating,
		formatCoord(l.Latitude),
		formatCoord(l.Longitude),
		scaledCoord(l.Latitude),
		scaledCoord(l.Longitude),
		l.TagsOrEmpty(),
		l.Description,
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// coordScale is the DECIMAL(16,13) scale of latitude and longitude.
const coordScale = 13

func scaledCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', coordScale, 64)
}
