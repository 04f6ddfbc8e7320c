package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

const auditColumns = `id, resource, action, item_ids, outcome, error, optimistic, actor, created_at`

// AuditRepo persists dispatched mutations to the mutation_audit table.
type AuditRepo struct {
	DB  *sql.DB
	now func() time.Time
}

var _ core.AuditRepository = (*AuditRepo)(nil)

// NewAuditRepo creates an AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db, now: time.Now}
}

// Record inserts entry, filling ID and CreatedAt when unset.
func (r *AuditRepo) Record(ctx context.Context, entry *model.AuditEntry) error {
	if entry == nil {
		return apperrors.Validation("audit entry is required")
	}
	if strings.TrimSpace(entry.Resource) == "" || entry.Action == "" {
		return apperrors.Validation("audit entry needs a resource and an action")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	ids := entry.ItemIDs
	if ids == nil {
		ids = []string{}
	}
	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode item ids: %w", err)
	}

	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO mutation_audit (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Resource, string(entry.Action), string(rawIDs), entry.Outcome,
		entry.Error, entry.Optimistic, entry.Actor, entry.CreatedAt,
	)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("insert audit entry: %w", err))
	}
	return nil
}

// List returns entries newest first, optionally restricted to one resource.
func (r *AuditRepo) List(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, error) {
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	offset := max(opts.Offset, 0)

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + auditColumns + ` FROM mutation_audit`)
	if res := strings.TrimSpace(opts.Resource); res != "" {
		args = append(args, res)
		query.WriteString(` WHERE resource = $1`)
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&query, ` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list audit entries: %w", err))
	}
	defer rows.Close()

	out := make([]*model.AuditEntry, 0, limit)
	for rows.Next() {
		e, scanErr := scanAuditEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate audit entries: %w", err))
	}
	return out, nil
}

func scanAuditEntry(rows *sql.Rows) (*model.AuditEntry, error) {
	var (
		e      model.AuditEntry
		action string
		rawIDs []byte
	)
	if err := rows.Scan(&e.ID, &e.Resource, &action, &rawIDs, &e.Outcome,
		&e.Error, &e.Optimistic, &e.Actor, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}
	e.Action = model.Action(action)
	if len(rawIDs) > 0 {
		if err := json.Unmarshal(rawIDs, &e.ItemIDs); err != nil {
			return nil, fmt.Errorf("decode item ids for %s: %w", e.ID, err)
		}
	}
	if e.ItemIDs == nil {
		e.ItemIDs = []string{}
	}
	return &e, nil
}

// ErrAuditDisabled is returned by NoopAuditRepo.List.
var ErrAuditDisabled = errors.New("audit log is disabled")

// NoopAuditRepo drops records; it is used when no database is configured.
type NoopAuditRepo struct{}

func (NoopAuditRepo) Record(context.Context, *model.AuditEntry) error { return nil }

func (NoopAuditRepo) List(context.Context, model.AuditListOptions) ([]*model.AuditEntry, error) {
	return nil, apperrors.Wrap(ErrAuditDisabled, apperrors.ErrCodeUnavailable, "audit log is disabled")
}
