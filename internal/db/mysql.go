package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailforge/internal/model"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Account{},
		&model.Template{},
		&model.TemplateFavorite{},
		&model.TemplateRating{},
	}
}

// NewMySQL returns a connected GORM DB instance with a bounded pool.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema. When reset is set, existing tables are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	models := Models()
	if reset {
		// drop in reverse so link tables go before their parents
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
