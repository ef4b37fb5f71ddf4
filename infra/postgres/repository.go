package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"market/app/item"
	"market/domain"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

type PgRepository struct {
	db *sqlx.DB
}

func NewPgRepository(host, database, user, password, port string) *PgRepository {
	db := sqlx.MustConnect("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, database,
	))

	// Connection pool configuration
	// With 3 replicas × 15 conns = 45 total connections (safer for default PG max_connections=100)
	db.SetMaxOpenConns(15)                 // Max concurrent DB connections per instance
	db.SetMaxIdleConns(8)                  // Keep 8 idle connections in pool
	db.SetConnMaxLifetime(5 * time.Minute) // Recycle connections every 5 min
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections after 2 min

	return &PgRepository{db: db}
}

func (r *PgRepository) Close() error {
	return r.db.Close()
}

// GetPoolStats returns current connection pool statistics
func (r *PgRepository) GetPoolStats() map[string]interface{} {
	stats := r.db.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// Visibility predicates shared by feeds and counts. An item is open when no
// flag hides it from the shop; the dealt subset only excludes blocked ones.
const (
	openItems  = "NOT blocked AND NOT deal AND NOT closed"
	dealtItems = "NOT blocked AND deal"
)

func (r *PgRepository) CreateItem(ctx context.Context, it domain.Item) (domain.Item, error) {
	var created domain.Item
	query := `
		INSERT INTO items (
			name, description, extra, price, seller_id, category_id,
			deal, closed, blocked, popularity, created_at, last_modified
		) VALUES (
			:name, :description, :extra, :price, :seller_id, :category_id,
			:deal, :closed, :blocked, :popularity, :created_at, :last_modified
		) RETURNING *`

	rows, err := r.db.NamedQueryContext(ctx, query, it)
	if err != nil {
		return created, err
	}
	defer rows.Close()

	if rows.Next() {
		err = rows.StructScan(&created)
	}
	return created, err
}

func (r *PgRepository) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	var it domain.Item
	query := `SELECT * FROM items WHERE id = $1`

	err := r.db.GetContext(ctx, &it, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return it, item.ErrNotFound
	}
	if err != nil {
		return it, err
	}

	return it, nil
}

// UpdateItem is a single-row compare-and-set keyed on last_modified. A zero
// row count means either the row vanished or another writer won.
func (r *PgRepository) UpdateItem(ctx context.Context, it domain.Item, prevModified int64) (domain.Item, error) {
	var updated domain.Item
	query := `
		UPDATE items SET
			name = $1, description = $2, extra = $3, price = $4,
			category_id = $5, deal = $6, closed = $7, blocked = $8,
			popularity = $9, last_modified = $10
		WHERE id = $11 AND last_modified = $12
		RETURNING *`

	err := r.db.GetContext(ctx, &updated, query,
		it.Name, it.Description, it.Extra, it.Price,
		it.CategoryID, it.Deal, it.Closed, it.Blocked,
		it.Popularity, it.LastModified,
		it.ID, prevModified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetItem(ctx, it.ID); errors.Is(getErr, item.ErrNotFound) {
			return updated, item.ErrNotFound
		}
		return updated, item.ErrConflict
	}
	if err != nil {
		return updated, err
	}

	return updated, nil
}

func (r *PgRepository) LatestItems(ctx context.Context, lastID int64, count int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items WHERE ` + openItems + `
		AND ($1 = 0 OR id < $1)
		ORDER BY id DESC LIMIT $2`

	err := r.db.SelectContext(ctx, &items, query, lastID, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) SellerItems(ctx context.Context, sellerID int64, deal bool, lastID int64, count int) ([]domain.Item, error) {
	subset := openItems
	if deal {
		subset = dealtItems
	}

	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items WHERE seller_id = $1 AND ` + subset + `
		AND ($2 = 0 OR id < $2)
		ORDER BY id DESC LIMIT $3`

	err := r.db.SelectContext(ctx, &items, query, sellerID, lastID, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) ClosedItems(ctx context.Context, sellerID, lastID int64, count int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items
		WHERE seller_id = $1 AND closed AND NOT blocked
		AND ($2 = 0 OR id < $2)
		ORDER BY id DESC LIMIT $3`

	err := r.db.SelectContext(ctx, &items, query, sellerID, lastID, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) CategoryItems(ctx context.Context, categoryID, lastID int64, count int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items WHERE category_id = $1 AND ` + openItems + `
		AND ($2 = 0 OR id < $2)
		ORDER BY id DESC LIMIT $3`

	err := r.db.SelectContext(ctx, &items, query, categoryID, lastID, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) CountItems(ctx context.Context, deal bool) (int64, error) {
	subset := openItems
	if deal {
		subset = dealtItems
	}

	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM items WHERE `+subset)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PgRepository) CountSellerItems(ctx context.Context, sellerID int64, deal bool) (int64, error) {
	subset := openItems
	if deal {
		subset = dealtItems
	}

	var count int64
	query := `SELECT COUNT(*) FROM items WHERE seller_id = $1 AND ` + subset

	err := r.db.GetContext(ctx, &count, query, sellerID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PgRepository) CountCategoryItems(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM items WHERE category_id = $1 AND ` + openItems

	err := r.db.GetContext(ctx, &count, query, categoryID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PgRepository) HotItems(ctx context.Context, count int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items WHERE ` + openItems + `
		ORDER BY popularity DESC, id DESC LIMIT $1`

	err := r.db.SelectContext(ctx, &items, query, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) SyncItems(ctx context.Context, lastSyncMills int64, count int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, count)
	query := `SELECT * FROM items WHERE last_modified > $1
		ORDER BY last_modified ASC, id ASC LIMIT $2`

	err := r.db.SelectContext(ctx, &items, query, lastSyncMills, count)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *PgRepository) SearchItems(ctx context.Context, q item.SearchQuery) ([]domain.Item, int64, error) {
	conds := []string{openItems}
	args := []interface{}{}

	if q.Name != "" {
		args = append(args, "%"+q.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if !q.MinPrice.IsZero() {
		args = append(args, q.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if !q.MaxPrice.IsZero() {
		args = append(args, q.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM items WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	if q.LastID > 0 {
		args = append(args, q.LastID)
		where += fmt.Sprintf(" AND id < $%d", len(args))
	}
	args = append(args, q.Count)

	items := make([]domain.Item, 0, q.Count)
	query := fmt.Sprintf(`SELECT * FROM items WHERE %s ORDER BY id DESC LIMIT $%d`, where, len(args))

	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
