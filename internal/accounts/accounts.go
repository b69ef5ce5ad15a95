package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokecloud/trade-server/internal/crypto"
	"github.com/pokecloud/trade-server/internal/database"
)

const (
	bcryptCost    = 10
	syncKeyLength = 32
)

const syncKeyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	ErrUserExists       = errors.New("username is already taken")
	ErrEmailExists      = errors.New("email is already in use")
	ErrUserNotFound     = errors.New("account does not exist")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrWrongCredentials = errors.New("incorrect username or password")
	ErrWrongActivation  = errors.New("activation code does not match")
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Service is the sqlite-backed account store. Its sync key and ban lookups
// satisfy the checker interface the trade coordinators consume.
type Service struct {
	db *database.DB
}

func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// CreateUser registers a new account with a bcrypt password hash. Returns
// the activation code the account must confirm with.
func (s *Service) CreateUser(ctx context.Context, email, username, password string) (string, error) {
	if !usernamePattern.MatchString(username) {
		return "", ErrInvalidUsername
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	activationCode := uuid.NewString()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, email, password_hash, activation_code)
		VALUES (?, ?, ?, ?)
	`, username, email, string(hash), activationCode)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email") {
			return "", ErrEmailExists
		}
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("insert account: %w", err)
	}
	return activationCode, nil
}

// VerifyPassword checks a login attempt and bumps the last accessed time on
// success. The username may also be the account's email address.
func (s *Service) VerifyPassword(ctx context.Context, username, password string) (string, error) {
	var storedUsername, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash FROM accounts
		WHERE username = ? OR email = ?
	`, username, username).Scan(&storedUsername, &hash)
	if err == sql.ErrNoRows {
		return "", ErrWrongCredentials
	}
	if err != nil {
		return "", fmt.Errorf("query account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrWrongCredentials
	}

	_, _ = s.db.ExecContext(ctx, `
		UPDATE accounts SET last_accessed_at = CURRENT_TIMESTAMP WHERE username = ?
	`, storedUsername)
	return storedUsername, nil
}

// UserExists reports whether an account exists for the username.
func (s *Service) UserExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query account: %w", err)
	}
	return count > 0, nil
}

// CreateCloudDataSyncKey rotates the sync key for one of the account's two
// save slots and returns it. Opening the Cloud data invalidates the key any
// previously opened tab is still holding.
func (s *Service) CreateCloudDataSyncKey(ctx context.Context, username string, randomizer bool) (string, error) {
	key, err := randomKey(syncKeyLength)
	if err != nil {
		return "", fmt.Errorf("generate sync key: %w", err)
	}

	column := "cloud_sync_key"
	if randomizer {
		column = "cloud_randomizer_sync_key"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET `+column+` = ? WHERE username = ?`, key, username)
	if err != nil {
		return "", fmt.Errorf("store sync key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrUserNotFound
	}
	return key, nil
}

// GetCloudDataSyncKey returns the stored sync key for the save slot, or ""
// when the account doesn't exist.
func (s *Service) GetCloudDataSyncKey(username string, randomizer bool) (string, error) {
	column := "cloud_sync_key"
	if randomizer {
		column = "cloud_randomizer_sync_key"
	}

	var key string
	err := s.db.QueryRow(
		`SELECT `+column+` FROM accounts WHERE username = ?`, username).Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query sync key: %w", err)
	}
	return key, nil
}

// IsUserBannedFromWonderTrade reports the account's Wonder Trade ban flag.
// Unknown accounts are not banned.
func (s *Service) IsUserBannedFromWonderTrade(username string) bool {
	var banned int
	err := s.db.QueryRow(
		`SELECT wonder_trade_ban FROM accounts WHERE username = ?`, username).Scan(&banned)
	if err != nil {
		return false
	}
	return banned != 0
}

// BanFromWonderTrade flags the account so the matchmaker never pairs it.
func (s *Service) BanFromWonderTrade(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET wonder_trade_ban = 1 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("update ban flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ActivateUser marks the account as activated when the code matches the one
// issued at creation.
func (s *Service) ActivateUser(ctx context.Context, username, activationCode string) error {
	var stored string
	err := s.db.QueryRowContext(ctx,
		`SELECT activation_code FROM accounts WHERE username = ?`, username).Scan(&stored)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("query activation code: %w", err)
	}
	if activationCode == "" || activationCode != stored {
		return ErrWrongActivation
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE accounts SET activated = 1 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("update activation flag: %w", err)
	}
	return nil
}

// AccountIsActivated reports whether the account confirmed its activation
// code.
func (s *Service) AccountIsActivated(ctx context.Context, username string) (bool, error) {
	var activated int
	err := s.db.QueryRowContext(ctx,
		`SELECT activated FROM accounts WHERE username = ?`, username).Scan(&activated)
	if err == sql.ErrNoRows {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query activation flag: %w", err)
	}
	return activated != 0, nil
}

func randomKey(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := crypto.RandBytes(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = syncKeyCharset[int(b)%len(syncKeyCharset)]
	}
	return string(raw), nil
}
