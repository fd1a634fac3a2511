package locations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarmap/pkg/models"
)

func TestIconFor(t *testing.T) {
	assert.Equal(t, Icon{Name: "fa-glass", MarkerColor: "blue", IconColor: "white"}, IconFor("Bar"))
	assert.Equal(t, Icon{Name: "fa-cutlery", MarkerColor: "gray", IconColor: "white"}, IconFor("Food"))
	assert.Equal(t, Icon{Name: "fa-globe", MarkerColor: "green", IconColor: "white"}, IconFor("Activity"))
	assert.Equal(t, "fa-globe", IconFor("").Name)
}

func TestPopupHTML_Escapes(t *testing.T) {
	html, err := PopupHTML(models.Location{
		Name: "Tom & Jerry's", Type: "Bar", Address: "1 Main St",
		Rating: "4", Description: "<script>x</script>",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<h3> Tom &amp; Jerry&#39;s </h3>")
	assert.Contains(t, html, "Tags: <br>")
	assert.Contains(t, html, "<i>&lt;script&gt;x&lt;/script&gt;</i>")
}

func TestBuildMap_DCCentresOnMean(t *testing.T) {
	rows := sampleRows()[:2]
	mv, err := BuildMap(ViewDC, rows, MapOptions{Fallback: LatLng{1, 2}, Zoom: 12})
	require.NoError(t, err)

	assert.Equal(t, 12, mv.Zoom)
	assert.InDelta(t, (38.9124+38.8980)/2, mv.Center[0], 1e-9)
	assert.InDelta(t, (-77.0219-77.0331)/2, mv.Center[1], 1e-9)
	require.Len(t, mv.Markers, 2)
	assert.Equal(t, "Dacha Beer Garden", mv.Markers[0].Title)
	assert.Equal(t, LatLng{38.9124, -77.0219}, mv.Markers[0].Location)
	assert.False(t, mv.Markers[0].Draggable)
	assert.Equal(t, "fa-glass", mv.Markers[0].Icon.Name)
	assert.Contains(t, mv.Markers[1].Popup, "Old Ebbitt Grill")
}

func TestBuildMap_EmptyUsesFallback(t *testing.T) {
	mv, err := BuildMap(ViewDC, nil, MapOptions{Fallback: LatLng{38.9072, -77.0369}})
	require.NoError(t, err)
	assert.Equal(t, LatLng{38.9072, -77.0369}, mv.Center)
	assert.Equal(t, 12, mv.Zoom)
	assert.NotNil(t, mv.Markers)
	assert.Empty(t, mv.Markers)
}

func TestBuildMap_OtherIsLondon(t *testing.T) {
	mv, err := BuildMap(ViewOther, sampleRows(), MapOptions{Zoom: 12})
	require.NoError(t, err)
	assert.Equal(t, London, mv.Center)
	assert.Empty(t, mv.Markers)
}

func TestTableRows(t *testing.T) {
	rows := TableRows(sampleRows())
	require.Len(t, rows, 3)
	assert.Equal(t, TableRow{
		Name: "Old Ebbitt Grill", Type: "Food", Address: "675 15th St NW",
		Rating: "4.6", Tags: "", Description: "Oysters",
	}, rows[1])
	assert.Equal(t, "outdoor, dogs", rows[0].Tags)
}
