// Package stats persists player accounts, hand outcomes and ranking data
// in a local sqlite database.
package stats

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("stats: not found")

// ErrBadCredentials is returned for a failed login.
var ErrBadCredentials = errors.New("stats: invalid username or password")

// User is one registered account.
type User struct {
	ID        int64
	Name      string
	Email     string
	Money     int
	WinCount  int
	LoseCount int
	XP        int
}

// Snapshot is one point of a user's money history.
type Snapshot struct {
	Money     int
	WinCount  int
	LoseCount int
	Recorded  time.Time
}

// RankingEntry is one row of the XP leaderboard.
type RankingEntry struct {
	Name     string `json:"userName"`
	XP       int    `json:"xp"`
	Money    int    `json:"money"`
	WinCount int    `json:"winCount"`
}

// Store wraps the sqlite database.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open opens (and migrates) the database at path. Use ":memory:" for tests.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	// sqlite allows a single writer; a second pooled connection would also
	// see a different database entirely when path is ":memory:".
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: logger.WithPrefix("stats")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	money INTEGER NOT NULL DEFAULT 10000,
	win_count INTEGER NOT NULL DEFAULT 0,
	lose_count INTEGER NOT NULL DEFAULT 0,
	xp INTEGER NOT NULL DEFAULT 0,
	rewarding_ad_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS statistics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	money INTEGER NOT NULL,
	win_count INTEGER NOT NULL,
	lose_count INTEGER NOT NULL,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_statistics_user ON statistics(user_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("stats: migrate: %w", err)
	}
	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CreateAccount registers a new user with the standard starting bankroll.
func (s *Store) CreateAccount(name, password, email string) (*User, error) {
	if name == "" || password == "" {
		return nil, errors.New("stats: name and password are required")
	}
	res, err := s.db.Exec(
		`INSERT INTO users (name, password, email) VALUES (?, ?, ?)`,
		name, hashPassword(password), email,
	)
	if err != nil {
		return nil, fmt.Errorf("stats: create account %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.UserByID(id)
}

// Login verifies the credentials and returns the account.
func (s *Store) Login(name, password string) (*User, error) {
	u, err := s.userByName(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	var stored string
	err = s.db.QueryRow(`SELECT password FROM users WHERE id = ?`, u.ID).Scan(&stored)
	if err != nil {
		return nil, err
	}
	if stored != hashPassword(password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

const userColumns = `id, name, email, money, win_count, lose_count, xp`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Money, &u.WinCount, &u.LoseCount, &u.XP)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID fetches an account by id.
func (s *Store) UserByID(id int64) (*User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) userByName(name string) (*User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE name = ?`, name))
}

// SaveMoney stores the account's current bankroll.
func (s *Store) SaveMoney(id int64, money int) error {
	_, err := s.db.Exec(`UPDATE users SET money = ? WHERE id = ?`, money, id)
	return err
}

// HandWon records a won hand and the resulting bankroll.
func (s *Store) HandWon(id int64, money int) {
	_, err := s.db.Exec(
		`UPDATE users SET money = ?, win_count = win_count + 1 WHERE id = ?`,
		money, id,
	)
	if err != nil {
		s.log.Error("record win", "user", id, "err", err)
		return
	}
	s.snapshotAfterHand(id)
}

// HandLost records a lost hand and the resulting bankroll.
func (s *Store) HandLost(id int64, money int) {
	_, err := s.db.Exec(
		`UPDATE users SET money = ?, lose_count = lose_count + 1 WHERE id = ?`,
		money, id,
	)
	if err != nil {
		s.log.Error("record loss", "user", id, "err", err)
		return
	}
	s.snapshotAfterHand(id)
}

// HandPlayed records a settled hand that neither won nor counted as a
// loss, keeping the stored bankroll in step with the table.
func (s *Store) HandPlayed(id int64, money int) {
	if err := s.SaveMoney(id, money); err != nil {
		s.log.Error("record hand", "user", id, "err", err)
		return
	}
	s.snapshotAfterHand(id)
}

func (s *Store) snapshotAfterHand(id int64) {
	if err := s.AppendSnapshot(id); err != nil {
		s.log.Error("append snapshot", "user", id, "err", err)
	}
}

// AddXP grants experience to an account.
func (s *Store) AddXP(id int64, amount int) error {
	_, err := s.db.Exec(`UPDATE users SET xp = xp + ? WHERE id = ?`, amount, id)
	return err
}

// RewardAdAmount is the chip bonus for watching a rewarding ad.
const RewardAdAmount = 2000

// RewardAdShown credits the ad bonus and counts the view. Returns the
// amount granted.
func (s *Store) RewardAdShown(id int64) (int, error) {
	_, err := s.db.Exec(`
UPDATE users SET money = money + ?, rewarding_ad_count = rewarding_ad_count + 1
WHERE id = ?`, RewardAdAmount, id)
	if err != nil {
		return 0, err
	}
	return RewardAdAmount, nil
}

// AppendSnapshot stores the account's current standing into its history.
func (s *Store) AppendSnapshot(id int64) error {
	_, err := s.db.Exec(`
INSERT INTO statistics (user_id, money, win_count, lose_count)
SELECT id, money, win_count, lose_count FROM users WHERE id = ?`, id)
	return err
}

// History returns the account's recorded standings, oldest first.
func (s *Store) History(id int64, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
SELECT money, win_count, lose_count, recorded_at
FROM statistics WHERE user_id = ?
ORDER BY recorded_at ASC, id ASC LIMIT ?`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Money, &snap.WinCount, &snap.LoseCount, &snap.Recorded); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Rankings returns the top accounts by experience.
func (s *Store) Rankings(limit int) ([]RankingEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := s.db.Query(`
SELECT name, xp, money, win_count FROM users
ORDER BY xp DESC, money DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankingEntry
	for rows.Next() {
		var e RankingEntry
		if err := rows.Scan(&e.Name, &e.XP, &e.Money, &e.WinCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
