// Package sqlstore persists the task descriptor in a SQL database. The same
// schema and queries serve PostgreSQL (through the pgx stdlib driver) and
// SQLite (through modernc.org/sqlite). Each tracking scope owns one row of
// the task_descriptors table. Schema changes ship as embedded goose
// migrations applied by Migrate.
package sqlstore
