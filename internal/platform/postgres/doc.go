// Package postgres provides the PostgreSQL storage driver. Connections go
// through the pgx database/sql driver, the schema is managed with goose and
// the records live in a single kv_entries table accessed through sqlkv.
package postgres
