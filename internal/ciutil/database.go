package ciutil

import "log/slog"

// TestDatabaseURL returns the postgres DSN for integration tests, checking
// TASKWATCH_TEST_DB_URL before DATABASE_URL. It returns "" when neither is
// set.
func TestDatabaseURL(logger *slog.Logger) string {
	dsn := GetEnvWithFallbacks([]string{EnvTestDBURL, EnvDatabaseURL}, "", logger)
	if dsn == "" && logger != nil {
		logger.Info("No test database URL found", "ci", IsCI())
	}
	return dsn
}
