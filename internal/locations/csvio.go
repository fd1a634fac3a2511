package locations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scholarmap/pkg/models"
)

// CSVHeader is the column order written by ExportCSV. ImportCSV matches
// columns by header name, so any order is accepted.
var CSVHeader = []string{
	"loc_name", "city_name", "loc_type", "type_special", "loc_address",
	"loc_vibe", "loc_rating", "latitude", "longitude", "loc_tags", "loc_descr",
}

// ReadCSV parses location rows. Rows without a name are skipped; an empty
// loc_tags cell becomes NULL.
func ReadCSV(r io.Reader) ([]models.Location, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, col := range []string{"loc_name", "latitude", "longitude"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []models.Location
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		name := valueAt(header, row, "loc_name")
		if name == "" {
			continue
		}

		lat, err := strconv.ParseFloat(valueAt(header, row, "latitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse latitude for %s: %w", line, name, err)
		}
		lng, err := strconv.ParseFloat(valueAt(header, row, "longitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse longitude for %s: %w", line, name, err)
		}

		l := models.Location{
			Name:        name,
			City:        valueAt(header, row, "city_name"),
			Type:        valueAt(header, row, "loc_type"),
			TypeSpecial: valueAt(header, row, "type_special"),
			Address:     valueAt(header, row, "loc_address"),
			Vibe:        valueAt(header, row, "loc_vibe"),
			Rating:      valueAt(header, row, "loc_rating"),
			Latitude:    lat,
			Longitude:   lng,
			Description: valueAt(header, row, "loc_descr"),
		}
		if tags := valueAt(header, row, "loc_tags"); tags != "" {
			l.Tags = &tags
		}
		out = append(out, l)
	}
	return out, nil
}

// ImportCSV reads rows from r and upserts them in one transaction.
func ImportCSV(ctx context.Context, repo *Repo, r io.Reader) (int, error) {
	locs, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}
	if err := repo.UpsertMany(ctx, locs); err != nil {
		return 0, err
	}
	return len(locs), nil
}

// ExportCSV writes the whole table to w.
func ExportCSV(ctx context.Context, repo *Repo, w io.Writer) (int, error) {
	locs, err := repo.All(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}
	for _, l := range locs {
		if err := cw.Write([]string{
			l.Name, l.City, l.Type, l.TypeSpecial, l.Address, l.Vibe, l.Rating,
			formatCoord(l.Latitude), formatCoord(l.Longitude), l.TagsOrEmpty(), l.Description,
		}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(locs), cw.Error()
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
