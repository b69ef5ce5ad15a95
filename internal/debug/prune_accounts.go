package debug

import (
	"context"
	"database/sql"

	"github.com/pokecloud/trade-server/internal/logger"
)

// PruneUnactivatedAccounts deletes accounts that were never activated and
// haven't been touched in 30 days (maintenance helper).
func PruneUnactivatedAccounts(db *sql.DB) error {
	ctx := context.Background()
	res, err := db.ExecContext(ctx, `
		DELETE FROM accounts
		WHERE activated = 0
		AND last_accessed_at < datetime('now', '-30 days')
	`)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n >= 0 {
		logger.Infof("[Debug] Pruned unactivated accounts: %d", n)
	}
	return nil
}
