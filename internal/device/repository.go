package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for device catalogue persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices, ordered by name.
	List(ctx context.Context) ([]Device, error)

	// Upsert inserts a device or fully replaces an existing row with
	// the same ID. Used by catalogue sync from the cloud device list.
	Upsert(ctx context.Context, device *Device) error

	// UpdateAddr updates only the LAN address of a device.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateAddr(ctx context.Context, id string, addr *string) error

	// Delete removes a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, sku, name, addr, controllable, retrievable,
	capabilities, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// List retrieves all devices.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query, close error not actionable

	var devices []Device
	for rows.Next() {
		device, scanErr := scanDevice(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning device row: %w", scanErr)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// Upsert inserts or fully replaces a device row.
// The row is replaced wholesale; there is no field-level merge.
func (r *SQLiteRepository) Upsert(ctx context.Context, device *Device) error {
	if device.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDevice)
	}

	caps, err := json.Marshal(device.Capabilities)
	if err != nil {
		return fmt.Errorf("marshalling capabilities: %w", err)
	}

	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (id, sku, name, addr, controllable, retrievable,
			capabilities, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sku = excluded.sku,
			name = excluded.name,
			addr = excluded.addr,
			controllable = excluded.controllable,
			retrievable = excluded.retrievable,
			capabilities = excluded.capabilities,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		device.ID, device.SKU, device.Name, device.Addr,
		device.Controllable, device.Retrievable,
		string(caps), device.CreatedAt, device.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting device: %w", err)
	}
	return nil
}

// UpdateAddr updates only the LAN address of a device.
func (r *SQLiteRepository) UpdateAddr(ctx context.Context, id string, addr *string) error {
	query := `UPDATE devices SET addr = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, addr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating device address: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner abstracts over *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row into a Device struct.
// The capabilities column holds a JSON array of capability strings.
func scanDevice(s scanner) (*Device, error) {
	var (
		d       Device
		addr    sql.NullString
		capsRaw string
	)

	err := s.Scan(
		&d.ID, &d.SKU, &d.Name, &addr,
		&d.Controllable, &d.Retrievable,
		&capsRaw, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if addr.Valid {
		d.Addr = &addr.String
	}
	if capsRaw != "" {
		if err := json.Unmarshal([]byte(capsRaw), &d.Capabilities); err != nil {
			return nil, fmt.Errorf("unmarshalling capabilities: %w", err)
		}
	}

	return &d, nil
}
