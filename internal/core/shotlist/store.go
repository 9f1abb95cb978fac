// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a [KeyValueStore] when a key has never been written.
var ErrKeyNotFound = errors.New("shotlist: key not found")

// # Durable Key-Value Access

// KeyValueStore defines the durable substrate that snapshots are written to.
type KeyValueStore interface {

	/*
		Get returns the value stored under key.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - string: Stored value
		  - error: ErrKeyNotFound if absent, storage failures otherwise
	*/
	Get(context context.Context, key string) (string, error)

	/*
		SetMany writes every entry in a single atomic step.

		Parameters:
		  - context: context.Context
		  - entries: map[string]string

		Returns:
		  - error: Storage failure (nothing is written)
	*/
	SetMany(context context.Context, entries map[string]string) error

	/*
		Ping verifies that the substrate is reachable.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Connectivity failure
	*/
	Ping(context context.Context) error
}
