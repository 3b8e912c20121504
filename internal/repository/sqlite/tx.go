package sqlite

import (
	"context"
	"fmt"

	"taskvault/internal/database"
	"taskvault/internal/domain"
	"taskvault/internal/schema"
)

// WithTx runs fn inside a transaction. fn receives a repository bound to
// the transaction with the full operation set; a nil return commits, any
// error or panic rolls everything back.
//
// Nesting WithTx is not supported; use Savepoint inside the transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(*Repository) error) error {
	if r.tx != nil {
		return fmt.Errorf("%w: WithTx inside a transaction; use Savepoint", domain.ErrValidation)
	}

	tx, err := r.db.Handle().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrConnection, err)
	}

	txRepo := &Repository{
		tx:     tx,
		q:      database.Queryer(tx),
		schema: schema.NewManager(tx),
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Savepoint runs fn inside a named savepoint on an open transaction. If fn
// fails, work since the savepoint is rolled back but the enclosing
// transaction stays usable; if fn succeeds, the savepoint is released.
//
// Only valid on the transaction-bound repository handed to WithTx's fn.
func (r *Repository) Savepoint(ctx context.Context, name string, fn func(*Repository) error) error {
	if r.tx == nil {
		return fmt.Errorf("%w: Savepoint outside a transaction", domain.ErrValidation)
	}
	if !schema.IsValidIdent(name) {
		return fmt.Errorf("%w: invalid savepoint name %q", domain.ErrValidation, name)
	}

	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}

	if err := fn(r); err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint %s after %v: %w", name, err, rbErr)
		}
		// Release discards the savepoint entry; the rollback above already
		// undid its effects
		if _, relErr := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); relErr != nil {
			return fmt.Errorf("release savepoint %s after %v: %w", name, err, relErr)
		}
		return err
	}

	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

// InTransaction reports whether this repository is bound to an open
// transaction
func (r *Repository) InTransaction() bool {
	return r.tx != nil
}
