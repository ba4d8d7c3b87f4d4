package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type txKey struct{}

const (
	maxTxAttempts = 3
	retryBackoff  = 20 * time.Millisecond
)

// Transactor 把 gorm 事务放进 context，仓储通过 Conn 取到同一个事务
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx 在一个事务里执行 fn，遇到死锁 / 锁等待超时时整体重试。
// 已经处在事务中时直接复用外层事务。
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
		if err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

// InTx ctx 是否携带事务
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// Conn 返回 ctx 中的事务，没有事务时返回带 ctx 的连接池
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
