// Package pgstore implements identity.Store on PostgreSQL with pgx.
//
// The schema's unique constraints are the concurrency arbiter the
// resolver depends on: accounts_email_key guards account emails,
// account_bindings_pkey guards (provider, external_id) pairs. 23505
// violations are mapped back onto identity.ErrEmailTaken and
// identity.ErrBindingTaken by constraint name. Migrations are embedded
// and applied with pg.MigrateFS.
package pgstore
