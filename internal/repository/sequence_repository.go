package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SequenceReserver atomically reserves the next ticket sequence number for
// a (calendar day, department code) partition. Reservations must be
// strictly increasing within a partition; count-then-insert is not an
// acceptable implementation.
type SequenceReserver interface {
	Reserve(ctx context.Context, day time.Time, departmentCode string) (int64, error)
}

type postgresSequenceReserver struct {
	pool *pgxpool.Pool
}

// NewPostgresSequenceReserver reserves sequences through an upsert counter
// row per partition; the increment happens inside a single statement.
func NewPostgresSequenceReserver(pool *pgxpool.Pool) SequenceReserver {
	return &postgresSequenceReserver{pool: pool}
}

func (r *postgresSequenceReserver) Reserve(ctx context.Context, day time.Time, departmentCode string) (int64, error) {
	const query = `
        INSERT INTO ticket_sequences (seq_date, department_code, value)
        VALUES ($1, $2, 1)
        ON CONFLICT (seq_date, department_code)
        DO UPDATE SET value = ticket_sequences.value + 1
        RETURNING value`
	var value int64
	if err := r.pool.QueryRow(ctx, query, day.UTC().Format("2006-01-02"), departmentCode).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

type redisSequenceReserver struct {
	client *redis.Client
}

// NewRedisSequenceReserver reserves sequences through INCR on a per-partition
// key. Keys expire two days after first use; by then the partition's calendar
// day has passed and the key can never be incremented again.
func NewRedisSequenceReserver(client *redis.Client) SequenceReserver {
	return &redisSequenceReserver{client: client}
}

func (r *redisSequenceReserver) Reserve(ctx context.Context, day time.Time, departmentCode string) (int64, error) {
	key := fmt.Sprintf("ticketseq:%s:%s", day.UTC().Format("20060102"), departmentCode)
	value, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if value == 1 {
		r.client.Expire(ctx, key, 48*time.Hour)
	}
	return value, nil
}
