package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"medrec/internal/domain"
)

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// assignments collects the SET list of a partial update.
type assignments struct {
	cols   []string
	args   []any
	fields []string
}

func (a *assignments) add(field, col string, v any) {
	a.fields = append(a.fields, field)
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, v)
}

func (a *assignments) empty() bool { return len(a.cols) == 0 }

// update runs UPDATE table SET ... WHERE id = ? and maps zero affected rows
// to NotFound. MySQL reports zero for rows whose values did not change, so
// existence is checked separately in that case.
func update(ctx context.Context, db queryer, table, resource string, id int64, a assignments) error {
	if a.empty() {
		return exists(ctx, db, table, resource, id)
	}
	stmt := "UPDATE " + table + " SET " + strings.Join(a.cols, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	res, err := db.ExecContext(ctx, stmt, append(a.args, id)...)
	if err != nil {
		if isDuplicate(err) {
			return domain.ConflictError{Resource: resource, Msg: "email already registered", Err: err}
		}
		return fmt.Errorf("update %s %d: %w", resource, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return exists(ctx, db, table, resource, id)
	}
	return nil
}

func exists(ctx context.Context, db queryer, table, resource string, id int64) error {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return fmt.Errorf("lookup %s %d: %w", resource, id, err)
}

// remove deletes one row and reports whether it existed.
func remove(ctx context.Context, db queryer, table, resource string, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", resource, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}
