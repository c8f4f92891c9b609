package support

import (
	"context"
	"time"

	"staybook/internal/app/uow"
)

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Prepare(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// WriteUnit is either the ambient unit of work from the context or one the
// handler started itself and must finish.
type WriteUnit struct {
	uow.UnitOfWork
	Ctx       context.Context
	managed   bool
	committed bool
}

// BeginWriteUnit reuses the unit opened by the Transaction middleware when
// present, otherwise starts a managed one.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (*WriteUnit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &WriteUnit{UnitOfWork: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &WriteUnit{UnitOfWork: unit, Ctx: uow.Prepare(ctx, unit), managed: true}, nil
}

// Commit commits managed units; ambient units are committed by the middleware.
func (w *WriteUnit) Commit() error {
	if !w.managed || w.committed {
		return nil
	}
	if err := w.UnitOfWork.Commit(w.Ctx); err != nil {
		return err
	}
	w.committed = true
	return nil
}

// Close rolls back a managed unit that was not committed.
func (w *WriteUnit) Close() {
	if w.managed && !w.committed {
		_ = w.UnitOfWork.Rollback(w.Ctx)
	}
}

// Clock returns now() in UTC, falling back to time.Now.
func Clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
