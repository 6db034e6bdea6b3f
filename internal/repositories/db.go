package repositories

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blog/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported values for the STORE_DRIVER setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// userRecord is the row shape of the users table.
type userRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"uniqueIndex;type:varchar(100);not null"`
	Password  string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// postRecord is the row shape of the posts table.
type postRecord struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)"`
	Title     string      `gorm:"type:text;not null"`
	Slug      string      `gorm:"uniqueIndex;type:varchar(255);not null"`
	Excerpt   string      `gorm:"type:text;not null"`
	Content   string      `gorm:"type:text;not null"`
	AuthorID  *string     `gorm:"type:varchar(36);index"`
	Author    *userRecord `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (postRecord) TableName() string { return "posts" }

func (r *postRecord) toModel() models.Post {
	post := models.Post{
		ID:        r.ID,
		Title:     r.Title,
		Slug:      r.Slug,
		Excerpt:   r.Excerpt,
		Content:   r.Content,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	// Only the public projection leaves this package.
	if r.Author != nil {
		post.Author = &models.Author{ID: r.Author.ID, Username: r.Author.Username}
	}
	return post
}

// Open connects to the configured relational store.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}

// Migrate creates or updates the users and posts tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRecord{}, &postRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	log.Println("Closing database connection pool")
	return sqlDB.Close()
}

// isUniqueViolation covers drivers whose errors are not translated by GORM.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
