// Package store saves boxplot aggregation runs to SQLite or PostgreSQL.
package store
