package store

import (
	"context"
	"database/sql"
)

// Execer, Getter and Selecter are the slices of sqlx used by the stores. Both
// *sqlx.DB and *sqlx.Tx satisfy all of them, so a store method can run inside
// or outside db.TxRunner.WithTx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is the pool handed to the store constructors.
type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is what services receive inside a WithTx callback.
type Tx = DB

// affected unwraps the row count of a keyed UPDATE or DELETE; callers map 0
// to their own not-found error.
func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
