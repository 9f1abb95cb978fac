// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns used by hand-written SQL.
package schema

// AppKVEntryTable represents the 'app.kv_entry' table
type AppKVEntryTable struct {
	Table     string
	Key       string
	Value     string
	UpdatedAt string
}

var AppKVEntry = AppKVEntryTable{
	Table:     "app.kv_entry",
	Key:       "key",
	Value:     "value",
	UpdatedAt: "updatedat",
}
