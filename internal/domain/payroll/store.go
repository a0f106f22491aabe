package payroll

import "github.com/jackc/pgx/v5/pgxpool"

// Store is the Postgres implementation of StoreAPI and Directory.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}
