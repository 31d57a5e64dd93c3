// internal/repository/postgres/admin_log_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"carp-service/internal/domain/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const adminLogColumns = `id, admin_id, action, target_type, target_id, old_data, new_data,
	ip_address, user_agent, created_at`

// AdminLogRepository only inserts and reads; admin_logs rows are never changed.
type AdminLogRepository struct {
	db *pgxpool.Pool
}

func NewAdminLogRepository(db *pgxpool.Pool) *AdminLogRepository {
	return &AdminLogRepository{db: db}
}

const insertAdminLog = `
	INSERT INTO admin_logs (admin_id, action, target_type, target_id, old_data, new_data, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at
`

func adminLogArgs(e *audit.AdminLog) []interface{} {
	return []interface{}{
		e.AdminID, e.Action, e.TargetType, e.TargetID,
		rawJSON(e.OldData), rawJSON(e.NewData), e.IPAddress, e.UserAgent,
	}
}

// rawJSON keeps nil snapshots as SQL NULL.
func rawJSON(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (r *AdminLogRepository) Create(ctx context.Context, e *audit.AdminLog) error {
	err := r.db.QueryRow(ctx, insertAdminLog, adminLogArgs(e)...).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin log: %w", err)
	}
	return nil
}

func (r *AdminLogRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *audit.AdminLog) error {
	err := tx.QueryRow(ctx, insertAdminLog, adminLogArgs(e)...).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin log: %w", err)
	}
	return nil
}

func (r *AdminLogRepository) List(ctx context.Context, filters *audit.LogListFilters) ([]audit.AdminLog, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.AdminID != nil {
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", argPos))
		args = append(args, *filters.AdminID)
		argPos++
	}

	if filters.TargetType != "" {
		conditions = append(conditions, fmt.Sprintf("target_type = $%d", argPos))
		args = append(args, filters.TargetType)
		argPos++
	}

	if filters.TargetID != nil {
		conditions = append(conditions, fmt.Sprintf("target_id = $%d", argPos))
		args = append(args, *filters.TargetID)
		argPos++
	}

	if filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argPos))
		args = append(args, filters.Action)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM admin_logs WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count admin logs: %w", err)
	}

	limit, offset := pagination(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM admin_logs
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, adminLogColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list admin logs: %w", err)
	}
	defer rows.Close()

	logs := []audit.AdminLog{}
	for rows.Next() {
		var e audit.AdminLog
		var oldData, newData []byte
		if err := rows.Scan(
			&e.ID, &e.AdminID, &e.Action, &e.TargetType, &e.TargetID, &oldData, &newData,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan admin log: %w", err)
		}
		e.OldData, e.NewData = oldData, newData
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate admin logs: %w", err)
	}

	return logs, total, nil
}
