package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"scholarmap/pkg/config"
	"scholarmap/pkg/database"
	"scholarmap/pkg/models"
)

const testTable = "city_locations"

func strp(s string) *string { return &s }

func sampleRows() []models.Location {
	return []models.Location{
		{Name: "Dacha Beer Garden", City: "Washington", Type: "Bar", TypeSpecial: "Beer Garden", Address: "1600 7th St NW", Vibe: "Chill", Rating: "4.5", Latitude: 38.9124, Longitude: -77.0219, Tags: strp("outdoor, dogs"), Description: "Big patio"},
		{Name: "Old Ebbitt Grill", City: "Washington", Type: "Food", Address: "675 15th St NW", Vibe: "Classic", Rating: "4.6", Latitude: 38.8980, Longitude: -77.0331, Description: "Oysters"},
		{Name: "Kennedy Center", City: "Washington", Type: "Activity", Address: "2700 F St NW", Rating: "4.8", Latitude: 38.8957, Longitude: -77.0558, Tags: strp("music"), Description: "Free shows"},
	}
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: database.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, testTable))
	return NewRepo(db, testTable)
}

func seededRepo(t *testing.T) *Repo {
	t.Helper()
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertMany(context.Background(), sampleRows()))
	return repo
}
