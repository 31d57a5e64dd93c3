package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"carp-service/internal/domain/audit"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner opens the transaction a mutation runs in.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// LogWriter persists admin log entries.
type LogWriter interface {
	Create(ctx context.Context, entry *audit.AdminLog) error
	CreateWithTx(ctx context.Context, tx pgx.Tx, entry *audit.AdminLog) error
}

// Policy decides which actions must not commit without their log entry.
type Policy struct {
	failClosed map[audit.Action]bool
}

func NewPolicy(failClosed []string) Policy {
	p := Policy{failClosed: make(map[audit.Action]bool, len(failClosed))}
	for _, a := range failClosed {
		p.failClosed[audit.Action(a)] = true
	}
	return p
}

func DefaultPolicy() Policy {
	return NewPolicy([]string{
		string(audit.ActionDeleteUser),
		string(audit.ActionUpdateUserRole),
		string(audit.ActionUpdateSystemConfig),
	})
}

func (p Policy) FailClosed(a audit.Action) bool {
	return p.failClosed[a]
}

// Mutation describes the admin change being recorded.
type Mutation struct {
	Actor      audit.Actor
	Action     audit.Action
	TargetType audit.TargetType
	TargetID   *int64
}

// Change is what a mutation reports back: the snapshots around it and the
// target id when it was only known after the write (creates). A non-empty
// Action replaces Mutation.Action, so the policy follows what the locked row
// shows was actually changed.
type Change struct {
	TargetID *int64
	Action   audit.Action
	Old      any
	New      any
}

// MutateFunc performs the mutation inside tx.
type MutateFunc func(ctx context.Context, tx pgx.Tx) (*Change, error)

// Recorder runs admin mutations and writes their audit entries.
type Recorder struct {
	db     TxBeginner
	logs   LogWriter
	policy Policy
	logger *zap.Logger
}

func NewRecorder(db TxBeginner, logs LogWriter, policy Policy, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logs: logs, policy: policy, logger: logger}
}

// Run executes fn in a transaction. Fail-closed actions write the log in the
// same transaction and roll everything back when it cannot be written.
// Fail-open actions commit first and log best-effort.
func (r *Recorder) Run(ctx context.Context, m Mutation, fn MutateFunc) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	change, err := fn(ctx, tx)
	if err != nil {
		return err
	}
	if change == nil {
		change = &Change{}
	}
	if change.Action != "" {
		m.Action = change.Action
	}

	failClosed := r.policy.FailClosed(m.Action)
	if failClosed {
		entry, err := r.buildEntry(m, change)
		if err != nil {
			r.logger.Error("failed to snapshot admin mutation",
				zap.String("action", string(m.Action)),
				zap.Error(err))
			return fmt.Errorf("%w: %s", xerrors.ErrAdminActionFailed, m.Action)
		}
		if err := r.logs.CreateWithTx(ctx, tx, entry); err != nil {
			r.logger.Error("failed to write admin log, rolling back",
				zap.String("action", string(m.Action)),
				zap.Int64("admin_id", m.Actor.AdminID),
				zap.Error(err))
			return fmt.Errorf("%w: %s", xerrors.ErrAdminActionFailed, m.Action)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit admin mutation: %w", err)
	}

	if !failClosed {
		r.recordBestEffort(ctx, m, change)
	}
	return nil
}

func (r *Recorder) recordBestEffort(ctx context.Context, m Mutation, change *Change) {
	entry, err := r.buildEntry(m, change)
	if err != nil {
		r.logger.Warn("admin mutation committed without snapshot",
			zap.String("action", string(m.Action)),
			zap.Error(err))
		entry = r.entryWithoutSnapshots(m, change)
	}
	if err := r.logs.Create(ctx, entry); err != nil {
		r.logger.Warn("failed to write admin log after commit",
			zap.String("action", string(m.Action)),
			zap.Int64("admin_id", m.Actor.AdminID),
			zap.Error(err))
	}
}

func (r *Recorder) buildEntry(m Mutation, change *Change) (*audit.AdminLog, error) {
	entry := r.entryWithoutSnapshots(m, change)

	var err error
	if entry.OldData, err = snapshot(change.Old); err != nil {
		return nil, fmt.Errorf("old_data: %w", err)
	}
	if entry.NewData, err = snapshot(change.New); err != nil {
		return nil, fmt.Errorf("new_data: %w", err)
	}
	return entry, nil
}

func (r *Recorder) entryWithoutSnapshots(m Mutation, change *Change) *audit.AdminLog {
	entry := &audit.AdminLog{
		AdminID:    m.Actor.AdminID,
		Action:     m.Action,
		TargetType: m.TargetType,
		TargetID:   m.TargetID,
		IPAddress:  optional(m.Actor.IPAddress),
		UserAgent:  optional(m.Actor.UserAgent),
	}
	if change.TargetID != nil {
		entry.TargetID = change.TargetID
	}
	return entry
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
