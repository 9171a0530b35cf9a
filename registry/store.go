package registry

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pflow-xyz/go-tokenbound/chain"
)

// Store persists registry entries in sqlite so the token↔address mapping
// survives restarts.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a registry database at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc's sqlite driver opens one database per connection; a single
	// connection keeps the in-process view consistent.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		return err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS bindings (
		token_id INTEGER PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		deployed INTEGER NOT NULL DEFAULT 0
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(e Entry) error {
	deployed := 0
	if e.Deployed {
		deployed = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO bindings (token_id, address, deployed) VALUES (?, ?, ?)`,
		e.TokenID, e.Address.Hex(), deployed,
	)
	return err
}

func (s *Store) markDeployed(tokenID uint64) error {
	_, err := s.db.Exec(`UPDATE bindings SET deployed = 1 WHERE token_id = ?`, tokenID)
	return err
}

func (s *Store) loadAll() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT token_id, address, deployed FROM bindings ORDER BY token_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			tokenID  uint64
			addrHex  string
			deployed int
		)
		if err := rows.Scan(&tokenID, &addrHex, &deployed); err != nil {
			return nil, err
		}
		addr, err := chain.ParseAddress(addrHex)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", tokenID, err)
		}
		entries = append(entries, Entry{
			TokenID:  tokenID,
			Address:  addr,
			Deployed: deployed != 0,
		})
	}
	return entries, rows.Err()
}
