package features

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"tidal-atlas/models"
	"tidal-atlas/utils"
)

// Store persists feature records and classifications in SQLite. Feature
// values live in a JSON column keyed by schema column name; NaN round-trips
// as JSON null so the missing sentinel survives storage.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the SQLite feature store.
func NewStore(dataSourceName string) (*Store, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &Store{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createFeaturesTable := `
    CREATE TABLE IF NOT EXISTS features (
        region TEXT NOT NULL,
        segment_id TEXT NOT NULL,
        schema_version TEXT NOT NULL,
        dist_method TEXT NOT NULL DEFAULT '',
        has_label INTEGER NOT NULL DEFAULT 0,
        label_salinity REAL,
        discharge_m3s REAL,
        columns TEXT NOT NULL,
        PRIMARY KEY (region, segment_id)
    );
    CREATE INDEX IF NOT EXISTS idx_features_label ON features(region, has_label);
    `

	createClassificationsTable := `
    CREATE TABLE IF NOT EXISTS classifications (
        region TEXT NOT NULL,
        segment_id TEXT NOT NULL,
        class TEXT NOT NULL,
        confidence TEXT NOT NULL,
        method TEXT NOT NULL,
        probability REAL NOT NULL DEFAULT 0,
        dist_to_coast_km REAL,
        degraded_distance INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (region, segment_id)
    );
    CREATE INDEX IF NOT EXISTS idx_classifications_class ON classifications(region, class);
    `

	if _, err := db.Exec(createFeaturesTable); err != nil {
		return fmt.Errorf("error creating features table: %s", err)
	}
	if _, err := db.Exec(createClassificationsTable); err != nil {
		return fmt.Errorf("error creating classifications table: %s", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertRecords replaces the feature rows of a region's records.
func (s *Store) UpsertRecords(records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO features
		(region, segment_id, schema_version, dist_method, has_label, label_salinity, discharge_m3s, columns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		columnsJSON, err := encodeValues(rec.Values)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling features for %s: %s", rec.SegmentID, err)
		}

		hasLabel := 0
		var labelSalinity interface{}
		if rec.HasLabel {
			hasLabel = 1
			labelSalinity = rec.LabelSalinity
		}
		var discharge interface{}
		if !math.IsNaN(rec.DischargeM3s) {
			discharge = rec.DischargeM3s
		}

		if _, err := stmt.Exec(rec.Region, rec.SegmentID, rec.SchemaVersion,
			rec.DistMethod, hasLabel, labelSalinity, discharge, columnsJSON); err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing statement: %s", err)
		}
	}

	return tx.Commit()
}

// UpdateColumnGroup overwrites one extractor's column group on existing
// rows, leaving other columns untouched. Re-running an extractor is
// idempotent: the group is replaced wholesale, never merged per value.
func (s *Store) UpdateColumnGroup(region string, groups map[string]map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	selectStmt, err := tx.Prepare("SELECT columns FROM features WHERE region = ? AND segment_id = ?")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing select: %s", err)
	}
	defer selectStmt.Close()

	updateStmt, err := tx.Prepare("UPDATE features SET columns = ? WHERE region = ? AND segment_id = ?")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing update: %s", err)
	}
	defer updateStmt.Close()

	for segmentID, group := range groups {
		var columnsJSON string
		if err := selectStmt.QueryRow(region, segmentID).Scan(&columnsJSON); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			tx.Rollback()
			return fmt.Errorf("error reading row %s: %s", segmentID, err)
		}

		values, err := decodeValues(columnsJSON)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error decoding features for %s: %s", segmentID, err)
		}
		for col, v := range group {
			values[col] = v
		}

		merged, err := encodeValues(values)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling features for %s: %s", segmentID, err)
		}
		if _, err := updateStmt.Exec(merged, region, segmentID); err != nil {
			tx.Rollback()
			return fmt.Errorf("error updating row %s: %s", segmentID, err)
		}
	}

	return tx.Commit()
}

// UpdateDischarge overwrites the discharge metadata column on existing rows.
// NaN clears the value back to missing.
func (s *Store) UpdateDischarge(region string, values map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare("UPDATE features SET discharge_m3s = ? WHERE region = ? AND segment_id = ?")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing update: %s", err)
	}
	defer stmt.Close()

	for segmentID, v := range values {
		var discharge interface{}
		if !math.IsNaN(v) {
			discharge = v
		}
		if _, err := stmt.Exec(discharge, region, segmentID); err != nil {
			tx.Rollback()
			return fmt.Errorf("error updating row %s: %s", segmentID, err)
		}
	}

	return tx.Commit()
}

// LoadRecords reads a region's feature rows and validates them against the
// current schema. Rows written by an older schema fail the region rather
// than silently feeding the models a different column set.
func (s *Store) LoadRecords(region string) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT segment_id, schema_version, dist_method, has_label, label_salinity, discharge_m3s, columns
		FROM features WHERE region = ? ORDER BY segment_id`, region)
	if err != nil {
		return nil, fmt.Errorf("error querying features: %s", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var hasLabel int
		var labelSalinity, discharge sql.NullFloat64
		var columnsJSON string

		if err := rows.Scan(&rec.SegmentID, &rec.SchemaVersion, &rec.DistMethod,
			&hasLabel, &labelSalinity, &discharge, &columnsJSON); err != nil {
			return nil, fmt.Errorf("error scanning feature row: %s", err)
		}

		rec.Region = region
		rec.HasLabel = hasLabel == 1
		if labelSalinity.Valid {
			rec.LabelSalinity = labelSalinity.Float64
		}
		rec.DischargeM3s = math.NaN()
		if discharge.Valid {
			rec.DischargeM3s = discharge.Float64
		}
		rec.Values, err = decodeValues(columnsJSON)
		if err != nil {
			return nil, fmt.Errorf("error decoding features for %s: %s", rec.SegmentID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature rows: %s", err)
	}

	if len(records) > 0 {
		if records[0].SchemaVersion != SchemaVersion {
			return nil, &models.SchemaMismatchError{
				Region:  region,
				Version: records[0].SchemaVersion,
				Missing: []string{"(schema version " + SchemaVersion + " required)"},
			}
		}
		if err := ValidateColumns(region, records[0].ColumnNames()); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// StoreClassifications replaces a region's classification rows.
func (s *Store) StoreClassifications(results []models.Classification) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO classifications
		(region, segment_id, class, confidence, method, probability, dist_to_coast_km, degraded_distance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, res := range results {
		degraded := 0
		if res.DegradedDistance {
			degraded = 1
		}
		if _, err := stmt.Exec(res.Region, res.SegmentID, string(res.Class),
			string(res.Confidence), string(res.Method), res.Probability,
			res.DistToCoastKm, degraded); err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing statement: %s", err)
		}
	}

	return tx.Commit()
}

// LoadClassifications reads a region's classification rows.
func (s *Store) LoadClassifications(region string) ([]models.Classification, error) {
	rows, err := s.db.Query(`
		SELECT segment_id, class, confidence, method, probability, dist_to_coast_km, degraded_distance
		FROM classifications WHERE region = ? ORDER BY segment_id`, region)
	if err != nil {
		return nil, fmt.Errorf("error querying classifications: %s", err)
	}
	defer rows.Close()

	var results []models.Classification
	for rows.Next() {
		var res models.Classification
		var class, confidence, method string
		var degraded int

		if err := rows.Scan(&res.SegmentID, &class, &confidence, &method,
			&res.Probability, &res.DistToCoastKm, &degraded); err != nil {
			return nil, fmt.Errorf("error scanning classification: %s", err)
		}

		res.Region = region
		res.Class = models.SalinityClass(class)
		res.Confidence = models.Confidence(confidence)
		res.Method = models.Method(method)
		res.DegradedDistance = degraded == 1
		results = append(results, res)
	}

	return results, rows.Err()
}

// encodeValues serializes a feature map, mapping NaN to JSON null.
func encodeValues(values map[string]float64) (string, error) {
	out := make(map[string]interface{}, len(values))
	for col, v := range values {
		if math.IsNaN(v) {
			out[col] = nil
		} else {
			out[col] = v
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeValues is the inverse of encodeValues: null becomes NaN.
func decodeValues(columnsJSON string) (map[string]float64, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(columnsJSON), &raw); err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(raw))
	for col, v := range raw {
		switch n := v.(type) {
		case nil:
			values[col] = math.NaN()
		case float64:
			values[col] = n
		default:
			values[col] = math.NaN()
		}
	}
	return values, nil
}
