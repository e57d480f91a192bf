package database

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/prepdesk/prepdesk/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	// check if app user exists
	var exists bool
	rows, err := db.Query(fmt.Sprintf("SELECT true FROM pg_roles WHERE rolname='%s'", conf.Database.User))
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return errors.Wrap(err, "checking app user")
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "checking app user")
	}

	// create app user if not exist
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sql.DB, conf *core.Config) error {
	// check if DB exists
	var exists bool
	rows, err := db.Query(fmt.Sprintf("SELECT true FROM pg_database WHERE datname='%s'", conf.Database.Name))
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err = rows.Scan(&exists); err != nil {
			return errors.Wrap(err, "checking DB")
		}
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func CreateIfNotExist(conf *core.Config) error {
	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}
	defer func() { _ = db.Close() }()

	// create DB as app user
	db, err = open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	if err = createDB(db, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	defer func() { _ = db.Close() }()
	return nil
}

// Migrate applies all pending migrations.
func Migrate(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// Rollback undoes the last applied migration.
func Rollback(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil {
		return errors.Wrap(err, "rolling back database")
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "creating migration driver")
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "loading migrations")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	return m, errors.Wrap(err, "creating migrator")
}
