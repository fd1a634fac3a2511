package locations

import (
	"bytes"
	"html/template"

	"scholarmap/pkg/models"
)

// Icon is a Font Awesome marker icon.
type Icon struct {
	Name        string `json:"name"`
	MarkerColor string `json:"marker_color"`
	IconColor   string `json:"icon_color"`
}

// IconFor picks the marker icon for a location type.
func IconFor(locType string) Icon {
	switch locType {
	case "Bar":
		return Icon{Name: "fa-glass", MarkerColor: "blue", IconColor: "white"}
	case "Food":
		return Icon{Name: "fa-cutlery", MarkerColor: "gray", IconColor: "white"}
	default:
		return Icon{Name: "fa-globe", MarkerColor: "green", IconColor: "white"}
	}
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<h3> {{.Name}} </h3><br>
Type: {{.Type}}<br>
Address: {{.Address}}<br>
Tags: {{.Tags}}<br>
Rating: {{.Rating}}<br>
<i>{{.Description}}</i>`))

// PopupHTML renders the marker popup. Values are HTML-escaped.
func PopupHTML(l models.Location) (string, error) {
	var buf bytes.Buffer
	err := popupTmpl.Execute(&buf, struct {
		Name, Type, Address, Tags, Rating, Description string
	}{l.Name, l.Type, l.Address, l.TagsOrEmpty(), l.Rating, l.Description})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

type LatLng [2]float64

type Marker struct {
	Title     string `json:"title"`
	Location  LatLng `json:"location"`
	Draggable bool   `json:"draggable"`
	Icon      Icon   `json:"icon"`
	Popup     string `json:"popup"`
}

type MapView struct {
	Center  LatLng   `json:"center"`
	Zoom    int      `json:"zoom"`
	Markers []Marker `json:"markers"`
}

// View names the map tab.
type View string

const (
	ViewDC    View = "dc"
	ViewOther View = "other"
)

// London is the centre of the not-yet-populated "other" tab.
var London = LatLng{51.505781880507335, -0.11670485073523044}

type MapOptions struct {
	Fallback LatLng // centre when no rows match
	Zoom     int
}

// BuildMap lays out the markers for a tab. The DC tab centres on the mean
// of the rows' coordinates; the other tab is an empty map over London.
func BuildMap(view View, rows []models.Location, o MapOptions) (MapView, error) {
	zoom := o.Zoom
	if zoom <= 0 {
		zoom = 12
	}
	if view != ViewDC {
		return MapView{Center: London, Zoom: zoom, Markers: []Marker{}}, nil
	}

	mv := MapView{Center: o.Fallback, Zoom: zoom, Markers: make([]Marker, 0, len(rows))}
	if len(rows) == 0 {
		return mv, nil
	}

	var sumLat, sumLng float64
	for _, l := range rows {
		sumLat += l.Latitude
		sumLng += l.Longitude

		popup, err := PopupHTML(l)
		if err != nil {
			return MapView{}, err
		}
		mv.Markers = append(mv.Markers, Marker{
			Title:    l.Name,
			Location: LatLng{l.Latitude, l.Longitude},
			Icon:     IconFor(l.Type),
			Popup:    popup,
		})
	}
	n := float64(len(rows))
	mv.Center = LatLng{sumLat / n, sumLng / n}
	return mv, nil
}

// TableRow is what the page table shows: vibe, city, sub-type and the
// coordinates are left out.
type TableRow struct {
	Name        string `json:"Name"`
	Type        string `json:"Type"`
	Address     string `json:"Address"`
	Rating      string `json:"Rating"`
	Tags        string `json:"Tags"`
	Description string `json:"Description"`
}

// TableColumns is the header order of TableRow.
var TableColumns = []string{"Name", "Type", "Address", "Rating", "Tags", "Description"}

func TableRows(rows []models.Location) []TableRow {
	out := make([]TableRow, len(rows))
	for i, l := range rows {
		out[i] = TableRow{
			Name:        l.Name,
			Type:        l.Type,
			Address:     l.Address,
			Rating:      l.Rating,
			Tags:        l.TagsOrEmpty(),
			Description: l.Description,
		}
	}
	return out
}
