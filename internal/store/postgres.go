package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/renoworks/pricing-engine/internal/db"
	"github.com/renoworks/pricing-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"get_material":       `SELECT id, name, description, unit_price, unit, region, vendor, quality_score, embedding, source_url, updated_at FROM materials WHERE id = $1`,
	"update_embedding":   `UPDATE materials SET embedding = $1, updated_at = $2 WHERE id = $3`,
	"get_quote":          `SELECT id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at FROM quotes WHERE id = $1`,
	"insert_feedback":    `INSERT INTO feedback (id, quote_id, user_type, verdict, comment, material_feedback, pricing_feedback, impact_score, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_vendor":         `SELECT vendor_name, reliability_score, total_quotes, accepted_quotes, updated_at FROM vendor_reliability WHERE vendor_name = $1`,
	"get_regional":       `SELECT region, multiplier, last_updated FROM regional_pricing WHERE region = $1`,
	"insert_adjustment":  `INSERT INTO region_adjustments (id, region, direction, reason, quote_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access (e.g., bulk catalog loads).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS materials (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	unit_price    DOUBLE PRECISION NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	region        TEXT NOT NULL DEFAULT '',
	vendor        TEXT NOT NULL DEFAULT '',
	quality_score INTEGER NOT NULL DEFAULT 0,
	embedding     JSONB,
	source_url    TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_materials_region ON materials(region);
CREATE INDEX IF NOT EXISTS idx_materials_vendor ON materials(vendor);
CREATE INDEX IF NOT EXISTS idx_materials_unit_price ON materials(unit_price);

CREATE TABLE IF NOT EXISTS quotes (
	id                TEXT PRIMARY KEY,
	transcript        TEXT NOT NULL,
	tasks             JSONB NOT NULL,
	total_estimate    DOUBLE PRECISION NOT NULL,
	confidence_score  DOUBLE PRECISION NOT NULL,
	vat_rate          DOUBLE PRECISION NOT NULL,
	margin_percentage DOUBLE PRECISION NOT NULL,
	user_type         TEXT NOT NULL,
	region            TEXT NOT NULL DEFAULT '',
	project_type      TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_quotes_user_type ON quotes(user_type);
CREATE INDEX IF NOT EXISTS idx_quotes_region ON quotes(region);
CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at DESC);

CREATE TABLE IF NOT EXISTS tasks (
	id                     BIGSERIAL PRIMARY KEY,
	quote_id               TEXT NOT NULL REFERENCES quotes(id),
	label                  TEXT NOT NULL,
	category               TEXT NOT NULL DEFAULT '',
	estimated_duration     TEXT NOT NULL DEFAULT '',
	margin_protected_price DOUBLE PRECISION NOT NULL,
	confidence_score       DOUBLE PRECISION NOT NULL,
	labor_cost             DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_quote_id ON tasks(quote_id);

CREATE TABLE IF NOT EXISTS material_usage (
	id            BIGSERIAL PRIMARY KEY,
	quote_id      TEXT NOT NULL REFERENCES quotes(id),
	material_id   BIGINT,
	material_name TEXT NOT NULL,
	vendor        TEXT NOT NULL DEFAULT '',
	task_category TEXT NOT NULL DEFAULT '',
	quantity      DOUBLE PRECISION NOT NULL,
	unit_price    DOUBLE PRECISION NOT NULL,
	total_price   DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_material_usage_quote_id ON material_usage(quote_id);
CREATE INDEX IF NOT EXISTS idx_material_usage_vendor ON material_usage(vendor);

CREATE TABLE IF NOT EXISTS feedback (
	id                TEXT PRIMARY KEY,
	quote_id          TEXT NOT NULL REFERENCES quotes(id),
	user_type         TEXT NOT NULL,
	verdict           TEXT NOT NULL,
	comment           TEXT NOT NULL DEFAULT '',
	material_feedback JSONB,
	pricing_feedback  JSONB,
	impact_score      DOUBLE PRECISION NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_feedback_quote_id ON feedback(quote_id);
CREATE INDEX IF NOT EXISTS idx_feedback_verdict ON feedback(verdict);

CREATE TABLE IF NOT EXISTS vendor_reliability (
	vendor_name       TEXT PRIMARY KEY,
	total_quotes      INTEGER NOT NULL DEFAULT 0,
	accepted_quotes   INTEGER NOT NULL DEFAULT 0,
	reliability_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS regional_pricing (
	region       TEXT PRIMARY KEY,
	multiplier   DOUBLE PRECISION NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS region_adjustments (
	id         TEXT PRIMARY KEY,
	region     TEXT NOT NULL,
	direction  TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	quote_id   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_region_adjustments_region ON region_adjustments(region);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const materialColumns = `id, name, description, unit_price, unit, region, vendor, quality_score, embedding, source_url, updated_at`

func (s *PostgresStore) FindMaterials(ctx context.Context, filters model.SearchFilters, limit int) ([]model.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE true`
	args := []any{}
	argIdx := 1

	if filters.Region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argIdx)
		args = append(args, filters.Region)
		argIdx++
	}
	if filters.Unit != "" {
		query += fmt.Sprintf(` AND unit = $%d`, argIdx)
		args = append(args, filters.Unit)
		argIdx++
	}
	if filters.Vendor != "" {
		query += fmt.Sprintf(` AND vendor = $%d`, argIdx)
		args = append(args, filters.Vendor)
		argIdx++
	}
	if filters.QualityScore > 0 {
		query += fmt.Sprintf(` AND quality_score >= $%d`, argIdx)
		args = append(args, filters.QualityScore)
		argIdx++
	}
	if filters.MinPrice > 0 {
		query += fmt.Sprintf(` AND unit_price >= $%d`, argIdx)
		args = append(args, filters.MinPrice)
		argIdx++
	}
	if filters.MaxPrice > 0 {
		query += fmt.Sprintf(` AND unit_price <= $%d`, argIdx)
		args = append(args, filters.MaxPrice)
		argIdx++
	}

	query += ` ORDER BY id`

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find materials")
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanMaterialRow(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	return materials, eris.Wrap(rows.Err(), "postgres: find materials iterate")
}

func (s *PostgresStore) GetMaterial(ctx context.Context, id int64) (*model.Material, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = $1`, id,
	)
	m, err := scanMaterialRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get material %d", id)
	}
	return m, nil
}

func (s *PostgresStore) InsertMaterial(ctx context.Context, m *model.Material) (int64, error) {
	embJSON, err := marshalEmbedding(m.Embedding)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal embedding")
	}

	now := m.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO materials (name, description, unit_price, unit, region, vendor, quality_score, embedding, source_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		m.Name, m.Description, m.UnitPrice, m.Unit, m.Region, m.Vendor, m.QualityScore, embJSON, m.SourceURL, now,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert material")
	}
	return id, nil
}

func (s *PostgresStore) BulkInsertMaterials(ctx context.Context, materials []model.Material) (int64, error) {
	columns := []string{"name", "description", "unit_price", "unit", "region", "vendor", "quality_score", "embedding", "source_url", "updated_at"}
	rows := make([][]any, 0, len(materials))
	now := time.Now().UTC()

	for _, m := range materials {
		embJSON, err := marshalEmbedding(m.Embedding)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal embedding for %s", m.Name)
		}
		updatedAt := m.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		rows = append(rows, []any{
			m.Name, m.Description, m.UnitPrice, m.Unit, m.Region, m.Vendor,
			m.QualityScore, embJSON, m.SourceURL, updatedAt,
		})
	}

	return db.CopyFrom(ctx, s.pool, "materials", columns, rows)
}

func (s *PostgresStore) UpdateMaterialEmbedding(ctx context.Context, id int64, embedding []float64) error {
	embJSON, err := marshalEmbedding(embedding)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal embedding")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE materials SET embedding = $1, updated_at = $2 WHERE id = $3`,
		embJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update embedding %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("material not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) ListMaterialsWithoutEmbedding(ctx context.Context, limit int) ([]model.Material, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE embedding IS NULL ORDER BY id LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list materials without embedding")
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanMaterialRow(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	return materials, eris.Wrap(rows.Err(), "postgres: list materials iterate")
}

func (s *PostgresStore) InsertQuote(ctx context.Context, q *model.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	tasksJSON, err := json.Marshal(q.Tasks)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tasks")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin insert quote")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quotes (id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.Transcript, tasksJSON, q.TotalEstimate, q.ConfidenceScore,
		q.VATRate, q.MarginPercentage, string(q.UserType), q.Region, q.ProjectType, q.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert quote")
	}

	for _, task := range q.Tasks {
		_, err = tx.Exec(ctx,
			`INSERT INTO tasks (quote_id, label, category, estimated_duration, margin_protected_price, confidence_score, labor_cost)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, task.Label, string(task.Category), task.EstimatedDuration,
			task.MarginProtectedPrice, task.ConfidenceScore, task.LaborCost,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert task for quote %s", q.ID)
		}

		for _, item := range task.Materials {
			_, err = tx.Exec(ctx,
				`INSERT INTO material_usage (quote_id, material_id, material_name, vendor, task_category, quantity, unit_price, total_price)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				q.ID, item.MaterialID, item.Name, item.Vendor, string(task.Category),
				item.Quantity, item.UnitPrice, item.TotalPrice,
			)
			if err != nil {
				return eris.Wrapf(err, "postgres: insert material usage for quote %s", q.ID)
			}
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit insert quote")
}

func (s *PostgresStore) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	var q model.Quote
	var tasksJSON []byte
	var userType string

	err := s.pool.QueryRow(ctx,
		`SELECT id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at FROM quotes WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Transcript, &tasksJSON, &q.TotalEstimate, &q.ConfidenceScore,
		&q.VATRate, &q.MarginPercentage, &userType, &q.Region, &q.ProjectType, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get quote %s", id)
	}

	q.UserType = model.UserType(userType)
	if err := json.Unmarshal(tasksJSON, &q.Tasks); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal tasks")
	}
	return &q, nil
}

func (s *PostgresStore) ListQuotes(ctx context.Context, filter model.QuoteFilter) ([]model.Quote, error) {
	query := `SELECT id, transcript, tasks, total_estimate, confidence_score, vat_rate, margin_percentage, user_type, region, project_type, created_at FROM quotes WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserType != "" {
		query += fmt.Sprintf(` AND user_type = $%d`, argIdx)
		args = append(args, string(filter.UserType))
		argIdx++
	}
	if filter.Region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argIdx)
		args = append(args, filter.Region)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list quotes")
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		var q model.Quote
		var tasksJSON []byte
		var userType string

		if err := rows.Scan(&q.ID, &q.Transcript, &tasksJSON, &q.TotalEstimate, &q.ConfidenceScore,
			&q.VATRate, &q.MarginPercentage, &userType, &q.Region, &q.ProjectType, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quote")
		}
		q.UserType = model.UserType(userType)
		if err := json.Unmarshal(tasksJSON, &q.Tasks); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tasks")
		}
		quotes = append(quotes, q)
	}
	return quotes, eris.Wrap(rows.Err(), "postgres: list quotes iterate")
}

func (s *PostgresStore) InsertFeedback(ctx context.Context, fb *model.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	materialJSON, err := json.Marshal(fb.MaterialFeedback)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal material feedback")
	}
	pricingJSON, err := json.Marshal(fb.PricingFeedback)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pricing feedback")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO feedback (id, quote_id, user_type, verdict, comment, material_feedback, pricing_feedback, impact_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		fb.ID, fb.QuoteID, string(fb.UserType), string(fb.Verdict), fb.Comment,
		materialJSON, pricingJSON, fb.ImpactScore, fb.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert feedback")
}

func (s *PostgresStore) ListFeedback(ctx context.Context, quoteID string) ([]model.Feedback, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quote_id, user_type, verdict, comment, material_feedback, pricing_feedback, impact_score, created_at
		 FROM feedback WHERE quote_id = $1 ORDER BY created_at DESC`,
		quoteID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list feedback for quote %s", quoteID)
	}
	defer rows.Close()

	var feedbacks []model.Feedback
	for rows.Next() {
		var fb model.Feedback
		var userType, verdict string
		var materialJSON, pricingJSON []byte

		if err := rows.Scan(&fb.ID, &fb.QuoteID, &userType, &verdict, &fb.Comment,
			&materialJSON, &pricingJSON, &fb.ImpactScore, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		fb.UserType = model.UserType(userType)
		fb.Verdict = model.Verdict(verdict)
		if len(materialJSON) > 0 {
			if err := json.Unmarshal(materialJSON, &fb.MaterialFeedback); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal material feedback")
			}
		}
		if len(pricingJSON) > 0 {
			if err := json.Unmarshal(pricingJSON, &fb.PricingFeedback); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal pricing feedback")
			}
		}
		feedbacks = append(feedbacks, fb)
	}
	return feedbacks, eris.Wrap(rows.Err(), "postgres: list feedback iterate")
}

func (s *PostgresStore) FeedbackAnalytics(ctx context.Context) (*model.FeedbackAnalytics, error) {
	analytics := &model.FeedbackAnalytics{
		VerdictDistribution:     make(map[model.Verdict]int),
		RegionalAcceptanceRates: make(map[string]float64),
	}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(impact_score), 0) FROM feedback`,
	).Scan(&analytics.TotalFeedback, &analytics.AverageImpactScore)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: feedback totals")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT verdict, COUNT(*) FROM feedback GROUP BY verdict`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: verdict distribution")
	}
	defer rows.Close()
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verdict count")
		}
		analytics.VerdictDistribution[model.Verdict(verdict)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: verdict distribution iterate")
	}

	regionRows, err := s.pool.Query(ctx,
		`SELECT q.region, SUM(CASE WHEN f.verdict = 'accepted' THEN 1 ELSE 0 END)::float / COUNT(*)
		 FROM feedback f JOIN quotes q ON q.id = f.quote_id
		 WHERE q.region <> '' GROUP BY q.region`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: regional acceptance")
	}
	defer regionRows.Close()
	for regionRows.Next() {
		var region string
		var rate float64
		if err := regionRows.Scan(&region, &rate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan regional acceptance")
		}
		analytics.RegionalAcceptanceRates[region] = rate
	}
	if err := regionRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: regional acceptance iterate")
	}

	return analytics, nil
}

func (s *PostgresStore) GetVendorReliability(ctx context.Context, vendor string) (*model.VendorReliability, error) {
	var vr model.VendorReliability
	err := s.pool.QueryRow(ctx,
		`SELECT vendor_name, reliability_score, total_quotes, accepted_quotes, updated_at FROM vendor_reliability WHERE vendor_name = $1`,
		vendor,
	).Scan(&vr.VendorName, &vr.ReliabilityScore, &vr.TotalQuotes, &vr.AcceptedQuotes, &vr.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get vendor reliability %s", vendor)
	}
	return &vr, nil
}

// RecordVendorOutcome bumps the vendor's quote counters in a single upsert.
// The score is recomputed inside the statement so concurrent updates never
// lose an outcome.
func (s *PostgresStore) RecordVendorOutcome(ctx context.Context, vendor string, accepted bool) (*model.VendorReliability, error) {
	acceptedInc := 0
	if accepted {
		acceptedInc = 1
	}

	var vr model.VendorReliability
	err := s.pool.QueryRow(ctx,
		`INSERT INTO vendor_reliability (vendor_name, total_quotes, accepted_quotes, reliability_score, updated_at)
		 VALUES ($1, 1, $2, $2::float, $3)
		 ON CONFLICT (vendor_name) DO UPDATE SET
			total_quotes = vendor_reliability.total_quotes + 1,
			accepted_quotes = vendor_reliability.accepted_quotes + $2,
			reliability_score = (vendor_reliability.accepted_quotes + $2)::float / (vendor_reliability.total_quotes + 1),
			updated_at = $3
		 RETURNING vendor_name, reliability_score, total_quotes, accepted_quotes, updated_at`,
		vendor, acceptedInc, time.Now().UTC(),
	).Scan(&vr.VendorName, &vr.ReliabilityScore, &vr.TotalQuotes, &vr.AcceptedQuotes, &vr.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: record vendor outcome %s", vendor)
	}
	return &vr, nil
}

func (s *PostgresStore) GetRegionalMultiplier(ctx context.Context, region string) (*model.RegionalPricing, error) {
	var rp model.RegionalPricing
	err := s.pool.QueryRow(ctx,
		`SELECT region, multiplier, last_updated FROM regional_pricing WHERE region = $1`,
		region,
	).Scan(&rp.Region, &rp.Multiplier, &rp.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get regional multiplier %s", region)
	}
	return &rp, nil
}

// SeedRegionalPricing inserts missing regions only. Reviewed multipliers are
// never clobbered by a re-seed.
func (s *PostgresStore) SeedRegionalPricing(ctx context.Context, multipliers map[string]float64) error {
	now := time.Now().UTC()
	for region, multiplier := range multipliers {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO regional_pricing (region, multiplier, last_updated) VALUES ($1, $2, $3)
			 ON CONFLICT (region) DO NOTHING`,
			region, multiplier, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed regional pricing %s", region)
		}
	}
	return nil
}

func (s *PostgresStore) InsertRegionAdjustment(ctx context.Context, adj *model.RegionAdjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.New().String()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO region_adjustments (id, region, direction, reason, quote_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		adj.ID, adj.Region, adj.Direction, adj.Reason, adj.QuoteID, adj.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert region adjustment")
}

func (s *PostgresStore) ListRegionAdjustments(ctx context.Context, region string, limit int) ([]model.RegionAdjustment, error) {
	query := `SELECT id, region, direction, reason, quote_id, created_at FROM region_adjustments WHERE true`
	args := []any{}
	argIdx := 1

	if region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argIdx)
		args = append(args, region)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list region adjustments")
	}
	defer rows.Close()

	var adjustments []model.RegionAdjustment
	for rows.Next() {
		var adj model.RegionAdjustment
		if err := rows.Scan(&adj.ID, &adj.Region, &adj.Direction, &adj.Reason, &adj.QuoteID, &adj.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region adjustment")
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, eris.Wrap(rows.Err(), "postgres: list region adjustments iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterialRow(row rowScanner) (*model.Material, error) {
	var m model.Material
	var embJSON []byte

	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.UnitPrice, &m.Unit,
		&m.Region, &m.Vendor, &m.QualityScore, &embJSON, &m.SourceURL, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan material")
	}

	if len(embJSON) > 0 {
		if err := json.Unmarshal(embJSON, &m.Embedding); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal embedding")
		}
	}
	return &m, nil
}

func marshalEmbedding(embedding []float64) ([]byte, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	return json.Marshal(embedding)
}
