// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests get a migrated, empty database through GetTestPoolWithT and skip
// when MARKET_TEST_DATABASE_URL is not set:
//
//	func TestMyStore(t *testing.T) {
//	    pool := testdb.GetTestPoolWithT(t)
//	    users := postgres.NewPostgresUserStore(pool, nil)
//	    ...
//	}
//
// WithTx runs a test body inside a transaction that is always rolled back,
// for tests that must not leave rows behind. pgx.Tx satisfies both
// postgres.DBTX and postgres.TxBeginner (nested Begin becomes a savepoint),
// so every store can be built on the transaction.
package testdb
