package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

var auditColumns = []string{"at", "group_id", "from_state", "to_state", "actor", "reason"}

type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// uuidOrNil maps Empty to SQL NULL.
func uuidOrNil(id ident.EntityID) any {
	if id.IsEmpty() {
		return nil
	}
	return id.String()
}

// WriteChanges bulk-loads autonomy state changes with COPY.
func (r *AuditRepo) WriteChanges(ctx context.Context, changes []autonomy.Change) error {
	if len(changes) == 0 {
		return nil
	}
	n, err := r.db.Pool.CopyFrom(ctx, pgx.Identifier{"autonomy_audit"}, auditColumns,
		pgx.CopyFromSlice(len(changes), func(i int) ([]any, error) {
			c := changes[i]
			return []any{c.At, c.Group.String(), c.From.String(), c.To.String(), uuidOrNil(c.By), c.Reason}, nil
		}))
	if err != nil {
		return fmt.Errorf("audit copy: %w", err)
	}
	if int(n) != len(changes) {
		return fmt.Errorf("audit copy: wrote %d of %d rows", n, len(changes))
	}
	return nil
}
