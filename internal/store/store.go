package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-identity/identity/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.AuthorizationCode{},
		&models.RevokedToken{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// User operations

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil && isUniqueViolation(err) {
		if strings.Contains(err.Error(), "email") {
			return ErrEmailConflict
		}
		return ErrUsernameConflict
	}
	return err
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// DeactivateUser soft-disables a user. Rows are never hard-deleted.
func (s *Store) DeactivateUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Client operations

func (s *Store) GetClientByClientID(ctx context.Context, clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &client, nil
}

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *Store) UpdateClient(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Save(client).Error
}

// DeactivateClient soft-disables a client.
func (s *Store) DeactivateClient(ctx context.Context, clientID string) error {
	res := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("client_id = ?", clientID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// Authorization code operations

func (s *Store) CreateAuthorizationCode(ctx context.Context, code *models.AuthorizationCode) error {
	err := s.db.WithContext(ctx).Create(code).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (s *Store) GetAuthorizationCodeByHash(ctx context.Context, codeHash string) (*models.AuthorizationCode, error) {
	var code models.AuthorizationCode
	if err := s.db.WithContext(ctx).Where("code_hash = ?", codeHash).First(&code).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	if code.IsExpired() {
		return nil, ErrCodeNotFound
	}
	return &code, nil
}

// ConsumeAuthorizationCode marks a code consumed and returns its record.
// The UPDATE guarded by consumed_at IS NULL makes consumption exclusive:
// under concurrent exchanges of the same code exactly one caller gets the
// record, the rest get ErrCodeAlreadyConsumed. Expired codes report
// ErrCodeNotFound regardless of consumed state.
func (s *Store) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (*models.AuthorizationCode, error) {
	var code models.AuthorizationCode

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.AuthorizationCode{}).
			Where("code_hash = ? AND consumed_at IS NULL AND expires_at > ?", codeHash, now).
			Update("consumed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing models.AuthorizationCode
			if err := tx.Where("code_hash = ?", codeHash).First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCodeNotFound
				}
				return err
			}
			if existing.IsExpired() {
				return ErrCodeNotFound
			}
			return ErrCodeAlreadyConsumed
		}
		return tx.Where("code_hash = ?", codeHash).First(&code).Error
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// RecordIssuedTokens remembers what a consumed code produced, keyed for
// replay-triggered revocation.
func (s *Store) RecordIssuedTokens(ctx context.Context, codeID uint, accessJTI, refreshJTI, accessHash, refreshHash string) error {
	return s.db.WithContext(ctx).Model(&models.AuthorizationCode{}).
		Where("id = ?", codeID).
		Updates(map[string]any{
			"issued_access_jti":   accessJTI,
			"issued_refresh_jti":  refreshJTI,
			"issued_access_hash":  accessHash,
			"issued_refresh_hash": refreshHash,
		}).Error
}

func (s *Store) DeleteExpiredAuthorizationCodes(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.AuthorizationCode{})
	return result.RowsAffected, result.Error
}

// Revoked token operations

// CreateRevokedToken records a jti as revoked. Recording the same jti
// twice is not an error; revocation is idempotent.
func (s *Store) CreateRevokedToken(ctx context.Context, jti string, expiresAt time.Time) error {
	err := s.db.WithContext(ctx).Create(&models.RevokedToken{
		JTI:       jti,
		ExpiresAt: expiresAt,
	}).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeleteExpiredRevokedTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// isUniqueViolation matches unique-constraint failures across sqlite and
// postgres without importing either driver's error types.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
