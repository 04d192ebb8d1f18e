// Package migrate applies ordered, idempotent upgrade scripts against a live
// database, tracking applied scripts in a ledger table and wrapping every
// batch in a snapshot/restore safety net.
//
// Scripts live under <root>/*.{sql,script} and <root>/<driver>/*.{sql,script},
// where <driver> matches the database collaborator's DriverName (pgsql, mysql,
// sqlite). Within one batch, scripts run in lexicographic path order;
// numeric filename prefixes (000001_create_users.sql) are the convention for
// a meaningful execution order.
//
// A script's ledger identity is its path relative to the configured site
// root. Renaming or editing an already-applied script therefore silently
// diverges from its ledger record; there is no content hashing. Unreadable
// script files are skipped without being recorded, which leaves them pending
// on every future run — IsPending keeps reporting true until they become
// readable. Running two batches concurrently against the same database is
// unsupported; a duplicate ledger insert is detected and fails the batch,
// but nothing prevents the race.
package migrate
