package postgres

import (
	"fmt"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var tables = []any{&domain.Invoices{}, &domain.PaymentMethods{}, &domain.Events{}}

func Init(config *config.Config) *gorm.DB {
	dbConfig := config.Postgres
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s", dbConfig.Host, dbConfig.User, dbConfig.Password, dbConfig.Db_name, dbConfig.Port, dbConfig.Ssl_mode)
	db, err := open(dsn)
	if err != nil {
		panic(err)
	}
	return db
}

func open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm error: %w", err)
	}

	if err := db.AutoMigrate(tables...); err != nil {
		return nil, fmt.Errorf("auto migrate error: %w", err)
	}

	return db, nil
}

type TestConfig struct {
	Host     string
	User     string
	Password string
	DbName   string
	Port     uint16
}

var TEST_CONFIG = TestConfig{
	Host:     "localhost",
	User:     "postgres",
	Password: "lol",
	DbName:   "test",
	Port:     5432,
}

// InitTest connects to the test database. Tests skip when it is not running.
func InitTest(dbConfig TestConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s connect_timeout=2", dbConfig.Host, dbConfig.User, dbConfig.Password, dbConfig.DbName, dbConfig.Port, "disable")
	return open(dsn)
}

func DropTables(db *gorm.DB) error {
	return db.Migrator().DropTable(tables...)
}
