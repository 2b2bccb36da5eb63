package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"viralstudio/pkg/domain"
)

const migrateLockID int64 = 84518451

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent instances do not race the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&AccountModel{}, &ProfileModel{}, &ContentModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates an account.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "fullname", "avatar", "apikey", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&AccountModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up an account by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model AccountModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns an account by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetProfile returns the profile row for a user id.
func (s *GormStore) GetProfile(id string) (domain.UserProfile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.UserProfile{}, false, nil
		}
		return domain.UserProfile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// SaveProfile inserts or updates a profile row.
func (s *GormStore) SaveProfile(p domain.UserProfile) error {
	model := profileToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fullname", "avatar", "apikey"}),
	}).Create(&model).Error
}

// SaveContent inserts a generation; the store assigns id and created_at.
func (s *GormStore) SaveContent(topic string, data domain.GeneratedContent, ownerID string) (domain.ContentItem, error) {
	if ownerID == "" {
		return domain.ContentItem{}, ErrUnauthenticated
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("encode content: %w", err)
	}
	model := ContentModel{
		CreatedAt: time.Now().UTC(),
		Topic:     topic,
		Data:      datatypes.JSON(payload),
		UserID:    ownerID,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.ContentItem{}, err
	}
	return contentFromModel(model)
}

// UpdateContent replaces the data payload of a row the caller owns.
func (s *GormStore) UpdateContent(id int64, callerID string, data domain.GeneratedContent) error {
	owner, err := s.contentOwner(id)
	if err != nil {
		return err
	}
	if owner != callerID {
		return ErrForbidden
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	return s.db.Model(&ContentModel{}).
		Where("id = ?", id).
		Update("data", datatypes.JSON(payload)).Error
}

// DeleteContent removes a row the caller owns.
func (s *GormStore) DeleteContent(id int64, callerID string) error {
	owner, err := s.contentOwner(id)
	if err != nil {
		return err
	}
	if owner != callerID {
		return ErrForbidden
	}
	return s.db.Delete(&ContentModel{}, "id = ?", id).Error
}

// ListContents returns the caller's rows, most recent first.
func (s *GormStore) ListContents(ownerID string) ([]domain.ContentItem, error) {
	var models []ContentModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.ContentItem, 0, len(models))
	for _, m := range models {
		item, err := contentFromModel(m)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetContentByID fetches one row; rows the caller does not own read as
// not found.
func (s *GormStore) GetContentByID(id int64, callerID string) (domain.ContentItem, error) {
	var model ContentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ContentItem{}, ErrNotFound
		}
		return domain.ContentItem{}, err
	}
	if model.UserID != callerID {
		return domain.ContentItem{}, ErrNotFound
	}
	return contentFromModel(model)
}

func (s *GormStore) contentOwner(id int64) (string, error) {
	var model ContentModel
	if err := s.db.Select("user_id").First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrNotFound
		}
		return "", err
	}
	return model.UserID, nil
}

func userToModel(u domain.User) AccountModel {
	return AccountModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Fullname:     u.Fullname,
		Avatar:       u.Avatar,
		APIKey:       u.APIKey,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m AccountModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Fullname:     m.Fullname,
		Avatar:       m.Avatar,
		APIKey:       m.APIKey,
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func profileToModel(p domain.UserProfile) ProfileModel {
	return ProfileModel{ID: p.ID, Fullname: p.Fullname, Avatar: p.Avatar, APIKey: p.APIKey}
}

func profileFromModel(m ProfileModel) domain.UserProfile {
	return domain.UserProfile{ID: m.ID, Fullname: m.Fullname, Avatar: m.Avatar, APIKey: m.APIKey}
}

func contentFromModel(m ContentModel) (domain.ContentItem, error) {
	var data domain.GeneratedContent
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &data); err != nil {
			return domain.ContentItem{}, fmt.Errorf("decode content %d: %w", m.ID, err)
		}
	}
	return domain.ContentItem{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Topic:     m.Topic,
		Data:      data,
		UserID:    m.UserID,
	}, nil
}
