// Package pg provides the PostgreSQL plumbing shared by storage packages:
// a retrying pgxpool connector, a healthcheck closure, goose-based embedded
// migrations, and error classifiers.
//
// The error classifiers matter to correctness, not just convenience: the
// identity store's uniqueness constraints on email and (provider,
// external_id) are the final arbiter of signup races, and
// IsDuplicateKeyError / ConstraintName are how a violated insert is mapped
// back onto the matching conflict outcome.
//
// Usage:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, "migrations", cfg, log); err != nil { ... }
package pg
