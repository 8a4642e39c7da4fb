package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres 错误码
const (
	pgUniqueViolation  = "23505"
	pgSerialization    = "40001"
	pgDeadlockDetected = "40P01"
	pgLockNotAvailable = "55P03"
)

// IsUniqueViolation 是否唯一约束冲突
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// IsLockContention 是否锁等待超时/死锁/串行化失败，这类错误可在有限次数内重试
func IsLockContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerialization, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}
	return false
}
