// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are named {version}_{description}.sql, for example
// 001_initial_schema.sql. They are read from an fs.FS, usually an embedded
// directory, applied in ascending numeric version order inside one
// transaction each, and recorded in the schema_migrations table so that a
// version is never applied twice.
package migration
