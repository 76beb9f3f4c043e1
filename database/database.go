package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"hrportal/models"
	"hrportal/realtime"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the given driver ("postgres" or "sqlite") and migrates
// the schema. On postgres it also installs the change notification
// triggers read by realtime.PGListener.
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if driver == "postgres" {
		if err := installNotifyTriggers(db); err != nil {
			return nil, fmt.Errorf("install notify triggers: %w", err)
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Employee{},
		&models.Department{},
		&models.LeaveRequest{},
		&models.EmployeeDocument{},
	)
}

var notifyFunction = fmt.Sprintf(`
CREATE OR REPLACE FUNCTION hr_notify_change() RETURNS trigger AS $$
DECLARE
	row_id text;
BEGIN
	IF TG_OP = 'DELETE' THEN
		row_id := OLD.id;
	ELSE
		row_id := NEW.id;
	END IF;
	PERFORM pg_notify('%s', json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'id', row_id)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;`, realtime.NotifyChannel)

func installNotifyTriggers(db *gorm.DB) error {
	if err := db.Exec(notifyFunction).Error; err != nil {
		return err
	}
	tables := []string{
		models.CollectionEmployees,
		models.CollectionDepartments,
		models.CollectionLeaveRequests,
		models.CollectionDocuments,
	}
	for _, table := range tables {
		trigger := "hr_notify_" + table
		if err := db.Exec(fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table)).Error; err != nil {
			return err
		}
		stmt := fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION hr_notify_change()`, trigger, table)
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates a local account and a linked admin employee when no
// admin exists yet.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var count int64
	if err := db.WithContext(ctx).Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.Where("email = ?", email).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.Account{Email: email, PasswordHash: string(hashedPassword)}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		admin := models.Employee{
			FullName:   "Administrator",
			Email:      email,
			Department: "Administration",
			Position:   "HR Administrator",
			StartDate:  models.Date{Time: account.CreatedAt},
			Status:     models.EmployeeActive,
			Role:       models.RoleAdmin,
			AuthID:     &account.ID,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		log.Printf("Default admin created (email: %s)", email)
		return nil
	})
}
