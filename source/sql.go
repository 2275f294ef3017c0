package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/rushteam/bookrec/core"
)

// 默认查询对应 books / ratings 两张表（id 为 UUID，genres 为 text[]）。
const (
	DefaultRatingsQuery = `SELECT user_id::text, book_id::text, rating FROM ratings ORDER BY rated_at, id`
	DefaultCatalogQuery = `SELECT id::text, title, COALESCE(author, ''), genres FROM books ORDER BY id`
)

// SQLSource 从关系库读取快照（默认 Postgres，驱动 lib/pq）。
//   - 评分查询需返回 (user_id, book_id, rating)
//   - 目录查询需返回 (id, title, author, genres)，genres 为数组列，可为 NULL
type SQLSource struct {
	DB           *sql.DB
	RatingsQuery string
	CatalogQuery string
}

// PostgresOptions 是 Postgres 连接配置。
type PostgresOptions struct {
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// OpenPostgres 打开连接池并探活。
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err, "source: open postgres")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err, "source: ping postgres")
	}
	return db, nil
}

// NewSQLSource 使用默认查询创建数据源。
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{DB: db, RatingsQuery: DefaultRatingsQuery, CatalogQuery: DefaultCatalogQuery}
}

func (s *SQLSource) Name() string { return "sql" }

func (s *SQLSource) Load(ctx context.Context) (*core.Snapshot, error) {
	ratings, err := s.loadRatings(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return &core.Snapshot{Ratings: ratings, Catalog: catalog}, nil
}

func (s *SQLSource) loadRatings(ctx context.Context) ([]core.RatingRecord, error) {
	query := s.RatingsQuery
	if query == "" {
		query = DefaultRatingsQuery
	}
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err, "source: query ratings")
	}
	defer rows.Close()

	var out []core.RatingRecord
	for rows.Next() {
		var r core.RatingRecord
		if err := rows.Scan(&r.UserID, &r.BookID, &r.Rating); err != nil {
			return nil, fmt.Errorf("source: scan rating row %d: %w", len(out), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: iterate ratings: %w", err)
	}
	return out, nil
}

func (s *SQLSource) loadCatalog(ctx context.Context) ([]core.CatalogEntry, error) {
	query := s.CatalogQuery
	if query == "" {
		query = DefaultCatalogQuery
	}
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, err, "source: query catalog")
	}
	defer rows.Close()

	var out []core.CatalogEntry
	for rows.Next() {
		var (
			c      core.CatalogEntry
			genres pq.StringArray
		)
		if err := rows.Scan(&c.BookID, &c.Title, &c.Author, &genres); err != nil {
			return nil, fmt.Errorf("source: scan catalog row %d: %w", len(out), err)
		}
		c.Genres = []string(genres)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: iterate catalog: %w", err)
	}
	return out, nil
}
