// Package postgres implements the persistence ports on PostgreSQL using
// lib/pq.
//
// It mirrors the sqlite store table for table and is the gateway used when
// several engine processes share one managed database. Order items are
// replaced inside a transaction with COPY, and the sync cursor upsert keeps
// the later watermark with GREATEST.
//
// Migrations are embedded and applied by NewStore under a session advisory
// lock. Integration tests run only when MARKETSYNC_TEST_POSTGRES_DSN points
// at a disposable database.
package postgres
