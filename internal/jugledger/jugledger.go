// Package jugledger implements the jug state ledger: an ordered history of
// Filled/Emptied events from which the current state of every jug is derived.
//
// The ledger is persisted as a whole through a Store. Every mutation reads the
// full history, computes the new sequence, drops duplicate events and writes
// the result back in one piece. Three Store implementations are provided:
//   - FileStore: the CSV file contract (JugName,State,DateTime).
//   - MemoryStore: in-process, for tests and throwaway runs.
//   - PostgresStore: durable, for deployments that already run PostgreSQL.
package jugledger
