package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/renoworks/pricing-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS materials (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	unit_price    REAL NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	region        TEXT NOT NULL DEFAULT '',
	vendor        TEXT NOT NULL DEFAULT '',
	quality_score INTEGER NOT NULL DEFAULT 0,
	embedding     TEXT,
	source_url    TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_materials_region ON materials(region);
CREATE INDEX IF NOT EXISTS idx_materials_vendor ON materials(vendor);

CREATE TABLE IF NOT EXISTS quotes (
	id                TEXT PRIMARY KEY,
	transcript        TEXT NOT NULL,
	tasks             TEXT NOT NULL,
	total_estimate    REAL NOT NULL,
	confidence_score  REAL NOT NULL,
	vat_rate          REAL NOT NULL,
	margin_percentage REAL NOT NULL,
	user_type         TEXT NOT NULL,
	region            TEXT NOT NULL DEFAULT '',
	project_type      TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_quotes_user_type ON quotes(user_type);
CREATE INDEX IF NOT EXISTS idx_quotes_region ON quotes(region);

CREATE TABLE IF NOT EXISTS tasks (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	quote_id               TEXT NOT NULL REFERENCES quotes(id),
	label                  TEXT NOT NULL,
	category               TEXT NOT NULL DEFAULT '',
	estimated_duration     TEXT NOT NULL DEFAULT '',
	margin_protected_price REAL NOT NULL,
	confidence_score       REAL NOT NULL,
	labor_cost             REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_quote_id ON tasks(quote_id);

CREATE TABLE IF NOT EXISTS material_usage (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	quote_id      TEXT NOT NULL REFERENCES quotes(id),
	material_id   INTEGER,
	material_name TEXT NOT NULL,
	vendor        TEXT NOT NULL DEFAULT '',
	task_category TEXT NOT NULL DEFAULT '',
	quantity      REAL NOT NULL,
	unit_price    REAL NOT NULL,
	total_price   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_material_usage_quote_id ON material_usage(quote_id);
CREATE INDEX IF NOT EXISTS idx_material_usage_vendor ON material_usage(vendor);

CREATE TABLE IF NOT EXISTS feedback (
	id                TEXT PRIMARY KEY,
	quote_id          TEXT NOT NULL REFERENCES quotes(id),
	user_type         TEXT NOT NULL,
	verdict           TEXT NOT NULL,
	comment           TEXT NOT NULL DEFAULT '',
	material_feedback TEXT,
	pricing_feedback  TEXT,
	impact_score      REAL NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feedback_quote_id ON feedback(quote_id);

CREATE TABLE IF NOT EXISTS vendor_reliability (
	vendor_name       TEXT PRIMARY KEY,
	total_quotes      INTEGER NOT NULL DEFAULT 0,
	accepted_quotes   INTEGER NOT NULL DEFAULT 0,
	reliability_score REAL NOT NULL DEFAULT 0,
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS regional_pricing (
	region       TEXT PRIMARY KEY,
	multiplier   REAL NOT NULL,
	last_updated DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS region_adjustments (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL,
	direction  TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	quote_id   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_region_adjustments_region ON region_adjustments(region);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindMaterials(ctx context.Context, filters model.SearchFilters, limit int) ([]model.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE 1=1`
	var args []any

	if filters.Region != "" {
		query += ` AND region = ?`
		args = append(args, filters.Region)
	}
	if filters.Unit != "" {
		query += ` AND unit = ?`
		args = append(args, filters.Unit)
	}
	if filters.Vendor != "" {
		query += ` AND vendor = ?`
		args = append(args, filters.Vendor)
	}
	if filters.QualityScore > 0 {
		query += ` AND quality_score >= ?`
		args = append(args, filters.QualityScore)
	}
	if filters.MinPrice > 0 {
		query += ` AND unit_price >= ?`
		args = append(args, filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		query += ` AND unit_price <= ?`
		args = append(args, filters.MaxPrice)
	}

	query += ` ORDER BY id`

	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find materials")
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanSQLiteMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	return materials, eris.Wrap(rows.Err(), "sqlite: find materials iterate")
}

func (s *SQLiteStore) GetMaterial(ctx context.Context, id int64) (*model.Material, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id,
	)
	m, err := scanSQLiteMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get material %d", id)
	}
	return m, nil
}

func (s *SQLiteStore) InsertMaterial(ctx context.Context, m *model.Material) (int64, error) {
	embJSON, err := marshalEmbedding(m.Embedding)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal embedding")
	}

	now := m.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO materials (name, description, unit_price, unit, region, vendor, quality_score, embedding, source_url, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Description, m.UnitPrice, m.Unit, m.Region, m.Vendor, m.QualityScore, nullableString(embJSON), m.SourceURL, now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert material")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	return id, nil
}

func (s *SQLiteStore) BulkInsertMaterials(ctx context.Context, materials []model.Material) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var inserted int64
	for _, m := range materials {
		embJSON, err := marshalEmbedding(m.Embedding)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal embedding for %s", m.Name)
		}
		updatedAt := m.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO materials (name, description, unit_price, unit, region, vendor, quality_score, embedding, source_url, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.Description, m.UnitPrice, m.Unit, m.Region, m.Vendor, m.QualityScore, nullableString(embJSON), m.SourceURL, updatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: bulk insert %s", m.Name)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return inserted, nil
}

func (s *SQLiteStore) UpdateMaterialEmbedding(ctx context.Context, id int64, embedding []float64) error {
	embJSON, err := marshalEmbedding(embedding)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal embedding")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE materials SET embedding = ?, updated_at = ? WHERE id = ?`,
		nullableString(embJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update embedding %d", id)
	}
	return checkRowsAffected(res, "material", id)
}

func (s *SQLiteStore) ListMaterialsWithoutEmbedding(ctx context.Context, limit int) ([]model.Material, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE embedding IS NULL ORDER BY id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list materials without embedding")
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanSQLiteMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	return materials, eris.Wrap(rows.Err(), "sqlite: list materials iterate")
}

func (s *SQLiteStore) InsertQuote(ctx context.Context, q *model.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	tasksJSON, err := json.Marshal(q.Tasks)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tasks")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert quote")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quotes (id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Transcript, string(tasksJSON), q.TotalEstimate, q.ConfidenceScore,
		q.VATRate, q.MarginPercentage, string(q.UserType), q.Region, q.ProjectType, q.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert quote")
	}

	for _, task := range q.Tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tasks (quote_id, label, category, estimated_duration, margin_protected_price, confidence_score, labor_cost)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			q.ID, task.Label, string(task.Category), task.EstimatedDuration,
			task.MarginProtectedPrice, task.ConfidenceScore, task.LaborCost,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert task for quote %s", q.ID)
		}

		for _, item := range task.Materials {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO material_usage (quote_id, material_id, material_name, vendor, task_category, quantity, unit_price, total_price)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				q.ID, item.MaterialID, item.Name, item.Vendor, string(task.Category),
				item.Quantity, item.UnitPrice, item.TotalPrice,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert material usage for quote %s", q.ID)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert quote")
}

func (s *SQLiteStore) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at FROM quotes WHERE id = ?`,
		id,
	)
	q, err := scanSQLiteQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get quote %s", id)
	}
	return q, nil
}

func (s *SQLiteStore) ListQuotes(ctx context.Context, filter model.QuoteFilter) ([]model.Quote, error) {
	query := `SELECT id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at FROM quotes WHERE 1=1`
	var args []any

	if filter.UserType != "" {
		query += ` AND user_type = ?`
		args = append(args, string(filter.UserType))
	}
	if filter.Region != "" {
		query += ` AND region = ?`
		args = append(args, filter.Region)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list quotes")
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		q, err := scanSQLiteQuote(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quote")
		}
		quotes = append(quotes, *q)
	}
	return quotes, eris.Wrap(rows.Err(), "sqlite: list quotes iterate")
}

func (s *SQLiteStore) InsertFeedback(ctx context.Context, fb *model.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	materialJSON, err := json.Marshal(fb.MaterialFeedback)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal material feedback")
	}
	pricingJSON, err := json.Marshal(fb.PricingFeedback)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pricing feedback")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, quote_id, user_type, verdict, comment, material_feedback, pricing_feedback, impact_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.QuoteID, string(fb.UserType), string(fb.Verdict), fb.Comment,
		string(materialJSON), string(pricingJSON), fb.ImpactScore, fb.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert feedback")
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, quoteID string) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quote_id, user_type, verdict, comment, material_feedback, pricing_feedback, impact_score, created_at
		 FROM feedback WHERE quote_id = ? ORDER BY created_at DESC`,
		quoteID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list feedback for quote %s", quoteID)
	}
	defer rows.Close()

	var feedbacks []model.Feedback
	for rows.Next() {
		var fb model.Feedback
		var userType, verdict string
		var materialJSON, pricingJSON sql.NullString

		if err := rows.Scan(&fb.ID, &fb.QuoteID, &userType, &verdict, &fb.Comment,
			&materialJSON, &pricingJSON, &fb.ImpactScore, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feedback")
		}
		fb.UserType = model.UserType(userType)
		fb.Verdict = model.Verdict(verdict)
		if materialJSON.Valid && materialJSON.String != "" {
			if err := json.Unmarshal([]byte(materialJSON.String), &fb.MaterialFeedback); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal material feedback")
			}
		}
		if pricingJSON.Valid && pricingJSON.String != "" {
			if err := json.Unmarshal([]byte(pricingJSON.String), &fb.PricingFeedback); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal pricing feedback")
			}
		}
		feedbacks = append(feedbacks, fb)
	}
	return feedbacks, eris.Wrap(rows.Err(), "sqlite: list feedback iterate")
}

func (s *SQLiteStore) FeedbackAnalytics(ctx context.Context) (*model.FeedbackAnalytics, error) {
	analytics := &model.FeedbackAnalytics{
		VerdictDistribution:     make(map[model.Verdict]int),
		RegionalAcceptanceRates: make(map[string]float64),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(impact_score), 0) FROM feedback`,
	).Scan(&analytics.TotalFeedback, &analytics.AverageImpactScore)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: feedback totals")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT verdict, COUNT(*) FROM feedback GROUP BY verdict`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: verdict distribution")
	}
	defer rows.Close()
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verdict count")
		}
		analytics.VerdictDistribution[model.Verdict(verdict)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: verdict distribution iterate")
	}

	regionRows, err := s.db.QueryContext(ctx,
		`SELECT q.region, CAST(SUM(CASE WHEN f.verdict = 'accepted' THEN 1 ELSE 0 END) AS REAL) / COUNT(*)
		 FROM feedback f JOIN quotes q ON q.id = f.quote_id
		 WHERE q.region <> '' GROUP BY q.region`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: regional acceptance")
	}
	defer regionRows.Close()
	for regionRows.Next() {
		var region string
		var rate float64
		if err := regionRows.Scan(&region, &rate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan regional acceptance")
		}
		analytics.RegionalAcceptanceRates[region] = rate
	}
	if err := regionRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: regional acceptance iterate")
	}

	return analytics, nil
}

func (s *SQLiteStore) GetVendorReliability(ctx context.Context, vendor string) (*model.VendorReliability, error) {
	var vr model.VendorReliability
	err := s.db.QueryRowContext(ctx,
		`SELECT vendor_name, reliability_score, total_quotes, accepted_quotes, updated_at FROM vendor_reliability WHERE vendor_name = ?`,
		vendor,
	).Scan(&vr.VendorName, &vr.ReliabilityScore, &vr.TotalQuotes, &vr.AcceptedQuotes, &vr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get vendor reliability %s", vendor)
	}
	return &vr, nil
}

func (s *SQLiteStore) RecordVendorOutcome(ctx context.Context, vendor string, accepted bool) (*model.VendorReliability, error) {
	acceptedInc := 0
	if accepted {
		acceptedInc = 1
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin vendor outcome")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO vendor_reliability (vendor_name, total_quotes, accepted_quotes, reliability_score, updated_at)
		 VALUES (?, 1, ?, ?, ?)
		 ON CONFLICT (vendor_name) DO UPDATE SET
			total_quotes = vendor_reliability.total_quotes + 1,
			accepted_quotes = vendor_reliability.accepted_quotes + excluded.accepted_quotes,
			reliability_score = CAST(vendor_reliability.accepted_quotes + excluded.accepted_quotes AS REAL) / (vendor_reliability.total_quotes + 1),
			updated_at = excluded.updated_at`,
		vendor, acceptedInc, float64(acceptedInc), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: record vendor outcome %s", vendor)
	}

	var vr model.VendorReliability
	err = tx.QueryRowContext(ctx,
		`SELECT vendor_name, reliability_score, total_quotes, accepted_quotes, updated_at FROM vendor_reliability WHERE vendor_name = ?`,
		vendor,
	).Scan(&vr.VendorName, &vr.ReliabilityScore, &vr.TotalQuotes, &vr.AcceptedQuotes, &vr.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read vendor outcome %s", vendor)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit vendor outcome")
	}
	return &vr, nil
}

func (s *SQLiteStore) GetRegionalMultiplier(ctx context.Context, region string) (*model.RegionalPricing, error) {
	var rp model.RegionalPricing
	err := s.db.QueryRowContext(ctx,
		`SELECT region, multiplier, last_updated FROM regional_pricing WHERE region = ?`,
		region,
	).Scan(&rp.Region, &rp.Multiplier, &rp.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get regional multiplier %s", region)
	}
	return &rp, nil
}

func (s *SQLiteStore) SeedRegionalPricing(ctx context.Context, multipliers map[string]float64) error {
	now := time.Now().UTC()
	for region, multiplier := range multipliers {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO regional_pricing (region, multiplier, last_updated) VALUES (?, ?, ?)
			 ON CONFLICT (region) DO NOTHING`,
			region, multiplier, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed regional pricing %s", region)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertRegionAdjustment(ctx context.Context, adj *model.RegionAdjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO region_adjustments (id, region, direction, reason, quote_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		adj.ID, adj.Region, adj.Direction, adj.Reason, adj.QuoteID, adj.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert region adjustment")
}

func (s *SQLiteStore) ListRegionAdjustments(ctx context.Context, region string, limit int) ([]model.RegionAdjustment, error) {
	query := `SELECT id, region, direction, reason, quote_id, created_at FROM region_adjustments WHERE 1=1`
	var args []any

	if region != "" {
		query += ` AND region = ?`
		args = append(args, region)
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list region adjustments")
	}
	defer rows.Close()

	var adjustments []model.RegionAdjustment
	for rows.Next() {
		var adj model.RegionAdjustment
		if err := rows.Scan(&adj.ID, &adj.Region, &adj.Direction, &adj.Reason, &adj.QuoteID, &adj.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region adjustment")
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, eris.Wrap(rows.Err(), "sqlite: list region adjustments iterate")
}

func scanSQLiteMaterial(row rowScanner) (*model.Material, error) {
	var m model.Material
	var embJSON sql.NullString

	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.UnitPrice, &m.Unit,
		&m.Region, &m.Vendor, &m.QualityScore, &embJSON, &m.SourceURL, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan material")
	}

	if embJSON.Valid && embJSON.String != "" {
		if err := json.Unmarshal([]byte(embJSON.String), &m.Embedding); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal embedding")
		}
	}
	return &m, nil
}

func scanSQLiteQuote(row rowScanner) (*model.Quote, error) {
	var q model.Quote
	var tasksJSON, userType string

	err := row.Scan(&q.ID, &q.Transcript, &tasksJSON, &q.TotalEstimate, &q.ConfidenceScore,
		&q.VATRate, &q.MarginPercentage, &userType, &q.Region, &q.ProjectType, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	q.UserType = model.UserType(userType)
	if err := json.Unmarshal([]byte(tasksJSON), &q.Tasks); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tasks")
	}
	return &q, nil
}

func checkRowsAffected(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %v", entity, id)
	}
	return nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
