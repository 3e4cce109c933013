package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLConfig carries the connection parameters ConnectMySQL needs, sourced
// from config.Config rather than read here directly.
type MySQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// ConnectMySQL opens the gorm/MySQL connection parcel persistence uses.
// AutoMigrate runs here rather than in cmd/main.go, since this binary owns
// exactly one schema.
func ConnectMySQL(cfg MySQLConfig, models ...interface{}) *gorm.DB {
	host, port, user, password, dbname := cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to MySQL:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping MySQL:", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatal("Failed to auto-migrate schema:", err)
		}
	}

	log.Printf("Connected to MySQL at %s:%s/%s", host, port, dbname)
	return db
}
