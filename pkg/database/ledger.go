package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix = "peerstats:dump:"
	ledgerTTL       = 90 * 24 * time.Hour
)

// DumpLedger records which RIB dumps have already been processed so a
// scheduled run can skip them. A nil Redis client disables the ledger:
// every dump then looks unprocessed.
type DumpLedger struct {
	client *redis.Client
}

// NewDumpLedger creates a ledger backed by the given Redis client,
// which may be nil.
func NewDumpLedger(client *redis.Client) *DumpLedger {
	return &DumpLedger{client: client}
}

// IsProcessed reports whether the dump was already marked. Lookup
// failures count as unprocessed: reprocessing is safe, skipping is not.
func (l *DumpLedger) IsProcessed(ctx context.Context, dumpURL string) bool {
	if l.client == nil {
		return false
	}
	n, err := l.client.Exists(ctx, ledgerKeyPrefix+dumpURL).Result()
	if err != nil {
		log.Printf("Redis exists error: %v", err)
		return false
	}
	return n > 0
}

// MarkProcessed records the dump as done.
func (l *DumpLedger) MarkProcessed(ctx context.Context, dumpURL string) {
	if l.client == nil {
		return
	}
	if err := l.client.Set(ctx, ledgerKeyPrefix+dumpURL, time.Now().Unix(), ledgerTTL).Err(); err != nil {
		log.Printf("Redis set error: %v", err)
	}
}
