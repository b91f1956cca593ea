package database

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/formacrm/backend/pkg/constants"
)

// Connection wraps the shared MySQL handle.
// sql.DB is already thread-safe and manages its own connection pool; it is
// not wrapped with additional mutexes.
type Connection struct {
	db *sql.DB
}

var (
	instance *Connection
	once     sync.Once
	initErr  error
)

// GetInstance returns the singleton database connection
func GetInstance() (*Connection, error) {
	once.Do(func() {
		instance, initErr = newConnection()
	})
	return instance, initErr
}

// newConnection opens a connection using environment configuration
func newConnection() (*Connection, error) {
	host := os.Getenv(constants.EnvDBHost)
	port := os.Getenv(constants.EnvDBPort)
	user := os.Getenv(constants.EnvDBUser)
	password := os.Getenv(constants.EnvDBPassword)
	name := os.Getenv(constants.EnvDBName)

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	if name == "" {
		name = "formacrm"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns so connections stay alive instead of
	// being churned under load, which exhausts ephemeral ports.
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// NewFromDB wraps an existing handle; used by tests with sqlmock
func NewFromDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

// DB exposes the underlying sql.DB
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Begin starts a transaction
func (c *Connection) Begin() (*sql.Tx, error) {
	return c.db.Begin()
}

// Close closes the connection pool
func (c *Connection) Close() error {
	return c.db.Close()
}
