package models

// Location mirrors one row of the locations table. Tags is the only
// nullable column.
type Location struct {
	Name        string  `json:"loc_name"`
	City        string  `json:"city_name"`
	Type        string  `json:"loc_type"`
	TypeSpecial string  `json:"type_special"`
	Address     string  `json:"loc_address"`
	Vibe        string  `json:"loc_vibe"`
	Rating      string  `json:"loc_rating"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Tags        *string `json:"loc_tags"`
	Description string  `json:"loc_descr"`
}

// TagsOrEmpty returns the tags, or "" when the column is NULL.
func (l Location) TagsOrEmpty() string {
	if l.Tags == nil {
		return ""
	}
	return *l.Tags
}
