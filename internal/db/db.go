package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forkhub/internal/config"
	"forkhub/internal/logging"
	"forkhub/internal/models"
	"forkhub/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres when the URL looks like a postgres DSN and to a
// sqlite file otherwise.
func Open(url string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	if isPostgres(url) {
		dialector = postgres.Open(url)
	} else {
		dialector = sqlite.Open(url)
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if isPostgres(url) {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	return conn, nil
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://") ||
		strings.Contains(url, "host=")
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Restaurant{},
		&models.Comment{},
		&models.Favorite{},
		&models.Like{},
		&models.Followship{},
	)
}

// Init opens, migrates and optionally seeds the database.
func Init(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	conn, err := Open(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	logging.Info().Msg("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logging.Info().Msg("Database migration completed")

	if cfg.Database.Seed {
		if err := Seed(ctx, conn, cfg.Admin); err != nil {
			return nil, err
		}
	}
	return conn, nil
}

// Seed populates an empty database with categories, sample restaurants and an
// admin account. Tables that already have rows are left alone.
func Seed(ctx context.Context, conn *gorm.DB, admin config.AdminConfig) error {
	tx := conn.WithContext(ctx)
	if err := seedAdmin(tx, admin); err != nil {
		return err
	}
	categories, err := seedCategories(tx)
	if err != nil {
		return err
	}
	return seedRestaurants(tx, categories)
}

func seedAdmin(tx *gorm.DB, admin config.AdminConfig) error {
	if admin.Email == "" || admin.Password == "" {
		logging.Debug().Msg("No admin password configured, skipping admin seed")
		return nil
	}
	var existing models.User
	err := tx.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		logging.Debug().Str("email", admin.Email).Msg("Admin already seeded, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	user := models.User{Name: admin.Name, Email: admin.Email, Password: hash, IsAdmin: true}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	logging.Info().Str("email", admin.Email).Msg("Admin account created")
	return nil
}

func seedCategories(tx *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	if err := tx.Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		logging.Debug().Msg("Categories already seeded, skipping")
		return categories, nil
	}

	names := []string{"中式料理", "日本料理", "義大利料理", "墨西哥料理", "素食料理", "美式料理", "複合式料理"}
	for _, name := range names {
		c := models.Category{Name: name}
		if err := tx.Create(&c).Error; err != nil {
			logging.Error().Err(err).Str("name", name).Msg("Failed to create category")
			return nil, err
		}
		categories = append(categories, c)
	}
	logging.Info().Int("count", len(categories)).Msg("Initial categories created")
	return categories, nil
}

func seedRestaurants(tx *gorm.DB, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Restaurant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	samples := []models.Restaurant{
		{Name: "Golden Dragon", Tel: "(02) 2345 6789", Address: "12 Market St", OpeningHours: "11:00", Description: "Hand-pulled noodles and **dim sum** every day."},
		{Name: "Sakura Sushi", Tel: "(02) 2765 4321", Address: "8 River Rd", OpeningHours: "17:30", Description: "Omakase counter with fish flown in twice a week."},
		{Name: "Trattoria Roma", Tel: "(03) 3344 5566", Address: "40 Olive Ave", OpeningHours: "12:00", Description: "Wood-fired pizza and fresh pasta."},
		{Name: "El Sol", Tel: "(04) 2211 3344", Address: "5 Plaza Way", OpeningHours: "10:00", Description: "Tacos al pastor, *made to order*."},
		{Name: "Green Bowl", Tel: "(02) 2999 0000", Address: "77 Park Ln", OpeningHours: "09:00", Description: "Seasonal vegetarian bowls."},
		{Name: "Liberty Diner", Tel: "(07) 5566 7788", Address: "1 Main St", OpeningHours: "07:00", Description: "Burgers, shakes and all-day breakfast."},
	}
	for i := range samples {
		samples[i].CategoryID = categories[i%len(categories)].ID
	}
	if err := tx.Create(&samples).Error; err != nil {
		return fmt.Errorf("failed to seed restaurants: %w", err)
	}
	logging.Info().Int("count", len(samples)).Msg("Sample restaurants created")
	return nil
}
