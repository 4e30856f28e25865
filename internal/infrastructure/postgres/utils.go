package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isBadReference errores de datos del cliente: uuid mal formado (22P02) o FK inexistente (23503).
func isBadReference(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02" || pgErr.Code == "23503"
	}
	return false
}

// validUUID evita enviar a Postgres IDs que romperían el cast a uuid (se tratan como inexistentes).
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// uuidsOnly filtra los IDs que no son UUID válidos.
func uuidsOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			out = append(out, id)
		}
	}
	return out
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
