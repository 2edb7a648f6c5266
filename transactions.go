package accesskit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes fn within a database transaction. fn receives a
// Service bound to the transaction; any error rolls back, nil commits.
// Nesting is handled with savepoints.
//
// Example:
//
//	err := service.Transaction(ctx, func(tx *accesskit.Service) error {
//	    if err := tx.AssignRole(ctx, userID, adminRole.ID); err != nil {
//	        return err
//	    }
//	    return tx.SetUserActive(ctx, userID, true)
//	})
func (s *Service) Transaction(ctx context.Context, fn func(tx *Service) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		// Already in a transaction, nest with a savepoint.
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.WithDB(tx))
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.WithDB(tx))
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// TransactionWithOptions executes fn within a transaction with custom
// options. Nested calls fall back to savepoints, which carry no options.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(tx *accesskit.Service) error {
//	    _, err := tx.UpdateUser(ctx, user, user.Version)
//	    return err
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.WithDB(tx))
		})
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(s.WithDB(tx))
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// ReadOnlyTransaction executes fn within a read-only transaction, useful for
// multi-query reads that need a consistent snapshot.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}
