package assets

import "embed"

// Migrations はバイナリに埋め込んだスキーマのマイグレーションです。
//
//go:embed migrations/*.sql
var Migrations embed.FS
