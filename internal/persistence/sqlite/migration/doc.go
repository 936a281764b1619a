// Package migration applies versioned SQL files to a SQLite database.
//
// Files are read from an fs.FS, usually an embed.FS compiled into the binary,
// and must be named {version}_{description}.sql (for example
// "001_create_users.sql"). Applied versions are tracked in a
// schema_migrations table so each file runs exactly once, inside its own
// transaction.
//
// Statements are split on ";" so a migration file must not contain a
// semicolon inside a statement body, such as a trigger.
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
