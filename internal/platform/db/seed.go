package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/domain/auth"
	"timesheet/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureSettings(ctx, pool, cfg.CompanyName); err != nil {
		return err
	}

	if err := ensureInternalClient(ctx, pool, cfg.InternalClientName); err != nil {
		return err
	}

	return ensureAdminUser(ctx, pool, cfg.SeedAdminUsername, cfg.SeedAdminPassword, cfg.SeedAdminFullName)
}

func ensureSettings(ctx context.Context, pool *pgxpool.Pool, companyName string) error {
	defaults := map[string]string{
		"recall_window_hours": "24",
		"overtime_threshold":  "9",
		"work_week_start":     "Monday",
		"company_name":        companyName,
	}
	for key, value := range defaults {
		if _, err := pool.Exec(ctx, "INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING", key, value); err != nil {
			return err
		}
	}
	return nil
}

func ensureInternalClient(ctx context.Context, pool *pgxpool.Pool, name string) error {
	if name == "" {
		return errors.New("internal client name is required")
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO clients (name, description, is_internal)
    VALUES ($1, 'Internal company activities', TRUE)
    ON CONFLICT (name) DO NOTHING
  `, name)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, username, password, fullName string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE role = 'admin'").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if username == "" || password == "" {
		return errors.New("no admin user exists and seed admin credentials are not configured")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (username, password_hash, full_name, role, department)
    VALUES ($1, $2, $3, 'admin', 'IT')
  `, username, hash, fullName)
	return err
}
