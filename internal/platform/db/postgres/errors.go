package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

// UniqueViolation は err が一意制約違反であれば違反した制約名を返します。
func UniqueViolation(err error) (string, bool) {
	return violation(err, codeUniqueViolation)
}

// ForeignKeyViolation は err が外部キー制約違反であれば違反した制約名を返します。
func ForeignKeyViolation(err error) (string, bool) {
	return violation(err, codeForeignKeyViolation)
}

// InvalidTextRepresentation は err が型変換できない入力 (不正な UUID など) によるものかを判定します。
func InvalidTextRepresentation(err error) bool {
	_, ok := violation(err, codeInvalidText)
	return ok
}

func violation(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return "", false
	}
	return pgErr.ConstraintName, true
}
