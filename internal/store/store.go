package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/haojie06/visualgen-http/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Fixed setting keys, the service side of the dashboard's local storage.
const (
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"
	KeyTheme     = "theme"
)

var ErrNotSignedIn = errors.New("not signed in")

type Setting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text;not null"`
}

type Store struct {
	db *gorm.DB

	// token is read on every backend call
	tokenMu     sync.RWMutex
	tokenCache  string
	tokenLoaded bool
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.AutoMigrate(&Setting{}, &LibraryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) get(key string) (string, error) {
	var setting Setting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return setting.Value, err
}

func (s *Store) set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

// Token implements backend.TokenSource.
func (s *Store) Token() (string, error) {
	s.tokenMu.RLock()
	if s.tokenLoaded {
		defer s.tokenMu.RUnlock()
		return s.tokenCache, nil
	}
	s.tokenMu.RUnlock()

	token, err := s.get(KeyAuthToken)
	if err != nil {
		return "", err
	}
	s.tokenMu.Lock()
	s.tokenCache, s.tokenLoaded = token, true
	s.tokenMu.Unlock()
	return token, nil
}

func (s *Store) SignIn(token string, user model.UserInfo) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range map[string]string{KeyAuthToken: token, KeyAuthUser: string(userJSON)} {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&Setting{Key: key, Value: value}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.tokenMu.Lock()
	s.tokenCache, s.tokenLoaded = token, true
	s.tokenMu.Unlock()
	return nil
}

// ClearCredentials drops token and user info, theme is kept.
func (s *Store) ClearCredentials() error {
	err := s.db.Where("key IN ?", []string{KeyAuthToken, KeyAuthUser}).Delete(&Setting{}).Error
	s.tokenMu.Lock()
	s.tokenCache, s.tokenLoaded = "", err == nil
	s.tokenMu.Unlock()
	return err
}

func (s *Store) User() (*model.UserInfo, error) {
	raw, err := s.get(KeyAuthUser)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNotSignedIn
	}
	var user model.UserInfo
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) Theme() (string, error) {
	theme, err := s.get(KeyTheme)
	if theme == "" && err == nil {
		theme = "system"
	}
	return theme, err
}

func (s *Store) SetTheme(theme string) error {
	return s.set(KeyTheme, theme)
}
