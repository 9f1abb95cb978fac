// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// errStoreUnreadable marks a load that failed before any stored content was seen.
var errStoreUnreadable = errors.New("store unreadable")

// # Storage Keys

const (
	// DefaultKeyPrefix namespaces both snapshot keys.
	DefaultKeyPrefix = "cinescript_"

	projectsKey         = "projects"
	currentProjectIDKey = "current_project_id"
)

// # Persistence Adapter

// Persistence serializes whole snapshots to a [KeyValueStore].
type Persistence struct {
	kv       KeyValueStore
	entities *EntityStore
	prefix   string
	logger   *slog.Logger
}

// NewPersistence creates an adapter writing under prefix (or [DefaultKeyPrefix] when empty).
func NewPersistence(kv KeyValueStore, entities *EntityStore, prefix string, logger *slog.Logger) *Persistence {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persistence{kv: kv, entities: entities, prefix: prefix, logger: logger}
}

// ProjectsKey returns the full key holding the serialized collection.
func (persistence *Persistence) ProjectsKey() string {
	return persistence.prefix + projectsKey
}

// CurrentProjectIDKey returns the full key holding the current project id.
func (persistence *Persistence) CurrentProjectIDKey() string {
	return persistence.prefix + currentProjectIDKey
}

/*
Load restores the last saved snapshot.

Description: Load never fails. A missing, unreadable, unparsable, empty or
structurally malformed collection is replaced by the seed project, and the
reason is logged. The seed is written back so its ids stay stable across
restarts, unless the store could not be read at all. Shot numbering is re-derived so a hand-edited store cannot
break ordering. A current project id that does not resolve falls back to the
first project.

Parameters:
  - context: context.Context

Returns:
  - Collection: Non-empty collection
  - string: Id of a project inside the collection
*/
func (persistence *Persistence) Load(context context.Context) (Collection, string) {
	collection, err := persistence.readCollection(context)
	if err != nil {
		seed := persistence.entities.SeedProject()
		persistence.logger.WarnContext(context, "seed_fallback_used",
			slog.String("key", persistence.ProjectsKey()),
			slog.String("reason", err.Error()),
		)

		if !errors.Is(err, errStoreUnreadable) {
			if saveErr := persistence.Save(context, Collection{seed}, seed.ID); saveErr != nil {
				persistence.logger.WarnContext(context, "seed_save_failed", slog.Any("error", saveErr))
			}
		}

		return Collection{seed}, seed.ID
	}

	currentID, err := persistence.kv.Get(context, persistence.CurrentProjectIDKey())
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		persistence.logger.WarnContext(context, "current_project_read_failed", slog.Any("error", err))
	}

	if _, ok := collection.Project(currentID); !ok {
		currentID = collection[0].ID
	}

	return collection, currentID
}

// readCollection decodes and validates the stored collection.
func (persistence *Persistence) readCollection(context context.Context) (Collection, error) {
	raw, err := persistence.kv.Get(context, persistence.ProjectsKey())
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, errors.New("no saved projects")
		}
		return nil, fmt.Errorf("read projects: %w: %w", errStoreUnreadable, err)
	}

	var collection Collection
	if err := json.Unmarshal([]byte(raw), &collection); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	if len(collection) == 0 {
		return nil, errors.New("saved collection is empty")
	}

	if err := collection.Validate(); err != nil {
		return nil, err
	}

	for p := range collection {
		for s := range collection[p].Scenes {
			scene := &collection[p].Scenes[s]
			if err := CheckNumbering(scene.Shots); err != nil {
				persistence.logger.WarnContext(context, "shot_numbering_repaired",
					slog.String("scene_id", scene.ID),
					slog.String("reason", err.Error()),
				)
				scene.Shots = Reindex(scene.Shots)
			}
		}
	}

	return collection, nil
}

/*
Save writes the collection and current project id in one atomic step.

Parameters:
  - context: context.Context
  - collection: Collection
  - currentProjectID: string

Returns:
  - error: Encoding or storage failure
*/
func (persistence *Persistence) Save(context context.Context, collection Collection, currentProjectID string) error {
	if collection == nil {
		collection = Collection{}
	}

	encoded, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("shotlist: encode snapshot: %w", err)
	}

	err = persistence.kv.SetMany(context, map[string]string{
		persistence.ProjectsKey():         string(encoded),
		persistence.CurrentProjectIDKey(): currentProjectID,
	})
	if err != nil {
		return fmt.Errorf("shotlist: save snapshot: %w", err)
	}

	return nil
}

// Ping checks that the underlying store is reachable.
func (persistence *Persistence) Ping(context context.Context) error {
	return persistence.kv.Ping(context)
}
