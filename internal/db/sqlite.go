package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const dateLayout = "2006-01-02"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vehicles (
	plate             TEXT PRIMARY KEY,
	make              TEXT NOT NULL DEFAULT '',
	model             TEXT NOT NULL DEFAULT '',
	type              TEXT NOT NULL DEFAULT '',
	area              TEXT NOT NULL DEFAULT '',
	year              INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'IN_SERVICE',
	odometer          REAL NOT NULL DEFAULT 0,
	last_service_date TEXT,
	last_workshop     TEXT NOT NULL DEFAULT '',
	created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS service_history (
	id           TEXT PRIMARY KEY,
	plate        TEXT NOT NULL,
	date         TEXT NOT NULL DEFAULT '',
	odometer     REAL,
	service_type TEXT NOT NULL DEFAULT '',
	workshop     TEXT NOT NULL DEFAULT '',
	cost         REAL NOT NULL DEFAULT 0,
	description  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_service_history_plate ON service_history(plate, date);
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     INTEGER NOT NULL DEFAULT 1,
	last_login    DATETIME,
	created_at    DATETIME,
	updated_at    DATETIME
);`

// OpenSQLite opens the database at path and creates the fleet tables.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)
	if err := MigrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite creates any missing tables.
func MigrateSQLite(db *sql.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// SQLiteFleetStore keeps vehicles and service history in SQLite.
type SQLiteFleetStore struct {
	DB *sql.DB
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var v models.Vehicle
	var status string
	var lastService sql.NullString
	var createdAt sql.NullTime
	err := row.Scan(&v.Plate, &v.Make, &v.Model, &v.Type, &v.Area, &v.Year, &status,
		&v.Odometer, &lastService, &v.LastWorkshop, &createdAt)
	if err != nil {
		return v, err
	}
	v.Status = models.VehicleStatus(status)
	if lastService.Valid {
		if t := models.ParseDate(lastService.String); !t.IsZero() {
			v.LastServiceDate = &t
		}
	}
	if createdAt.Valid {
		v.CreatedAt = createdAt.Time
	}
	return v, nil
}

const vehicleColumns = `plate, make, model, type, area, year, status, odometer, last_service_date, last_workshop, created_at`

// Vehicles returns every vehicle ordered by plate.
func (s *SQLiteFleetStore) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY plate`)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ServiceHistory returns every service record ordered by plate and date.
// Dates that do not parse come back as the zero time.
func (s *SQLiteFleetStore) ServiceHistory(ctx context.Context) ([]models.ServiceRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, plate, date, odometer, service_type, workshop, cost, description, created_at
		FROM service_history ORDER BY plate, date`)
	if err != nil {
		return nil, fmt.Errorf("query service history: %w", err)
	}
	defer rows.Close()

	records := []models.ServiceRecord{}
	for rows.Next() {
		var r models.ServiceRecord
		var id, date string
		var odometer sql.NullFloat64
		var createdAt sql.NullTime
		if err := rows.Scan(&id, &r.Plate, &date, &odometer, &r.ServiceType, &r.Workshop,
			&r.Cost, &r.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan service record: %w", err)
		}
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			r.ID = oid
		}
		r.Date = models.ParseDate(date)
		if odometer.Valid {
			r.Odometer = models.Float(odometer.Float64)
		}
		if createdAt.Valid {
			r.CreatedAt = createdAt.Time
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FindVehicle finds a vehicle by its plate.
func (s *SQLiteFleetStore) FindVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE plate = ?`, plate)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// InsertVehicle registers a new vehicle.
func (s *SQLiteFleetStore) InsertVehicle(ctx context.Context, v models.Vehicle) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	var lastService any
	if v.LastServiceDate != nil {
		lastService = formatDate(*v.LastServiceDate)
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Plate, v.Make, v.Model, v.Type, v.Area, v.Year, string(v.Status),
		v.Odometer, lastService, v.LastWorkshop, v.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrVehicleExists
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// AddServiceRecord inserts the record and advances the vehicle in one
// transaction.
func (s *SQLiteFleetStore) AddServiceRecord(ctx context.Context, r models.ServiceRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles WHERE plate = ?`, r.Plate).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrVehicleNotFound
	}

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	var odometer any
	if r.Odometer != nil {
		odometer = *r.Odometer
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO service_history (id, plate, date, odometer, service_type, workshop, cost, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.Hex(), r.Plate, formatDate(r.Date), odometer, r.ServiceType, r.Workshop,
		r.Cost, r.Description, time.Now())
	if err != nil {
		return fmt.Errorf("insert service record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE vehicles SET last_workshop = ? WHERE plate = ?`, r.Workshop, r.Plate); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if r.HasDate() {
		_, err := tx.ExecContext(ctx, `
			UPDATE vehicles SET last_service_date = ?
			WHERE plate = ? AND (last_service_date IS NULL OR last_service_date < ?)`,
			formatDate(r.Date), r.Plate, formatDate(r.Date))
		if err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
	}
	if r.Odometer != nil {
		_, err := tx.ExecContext(ctx, `UPDATE vehicles SET odometer = MAX(odometer, ?) WHERE plate = ?`, *r.Odometer, r.Plate)
		if err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
	}
	return tx.Commit()
}

// SQLiteUserCollection implements UserCollection for SQLite.
type SQLiteUserCollection struct {
	DB *sql.DB
}

func (c *SQLiteUserCollection) InsertUser(ctx context.Context, user models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	_, err := c.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		user.ID.Hex(), user.Username, user.Email, user.PasswordHash, string(user.Role), now, now)
	return err
}

func (c *SQLiteUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	var id, role string
	var lastLogin, createdAt, updatedAt sql.NullTime
	err := c.DB.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, is_active, last_login, created_at, updated_at
		FROM users WHERE username = ?`, username).
		Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &role, &user.IsActive,
			&lastLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", id, err)
	}
	user.ID = oid
	user.Role = models.Role(role)
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, nil
}

func (c *SQLiteUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	_, err := c.DB.ExecContext(ctx, `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}
