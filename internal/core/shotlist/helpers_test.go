// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
)

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEntities issues predictable ids: id-1, id-2, ...
func newEntities() *shotlist.EntityStore {
	var counter atomic.Int64
	return shotlist.NewEntityStore(
		shotlist.WithIDGenerator(func() string {
			return fmt.Sprintf("id-%d", counter.Add(1))
		}),
		shotlist.WithClock(func() time.Time { return fixedNow }),
	)
}

func shotIDs(shots []shotlist.Shot) []string {
	ids := make([]string, len(shots))
	for i, shot := range shots {
		ids[i] = shot.ID
	}
	return ids
}

func shotNumbers(shots []shotlist.Shot) []int {
	numbers := make([]int, len(shots))
	for i, shot := range shots {
		numbers[i] = shot.Number
	}
	return numbers
}

func numberedShots(ids ...string) []shotlist.Shot {
	shots := make([]shotlist.Shot, len(ids))
	for i, id := range ids {
		shots[i] = shotlist.Shot{ID: id, Number: i + 1}
	}
	return shots
}

// # Failing Store

var errStorageDown = errors.New("storage down")

// flakyStore wraps an in-memory store and fails writes on demand.
type flakyStore struct {
	*shotlist.MemoryKeyValueStore
	failWrites atomic.Bool
	failReads  atomic.Bool
	writes     atomic.Int64
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryKeyValueStore: shotlist.NewMemoryKeyValueStore()}
}

func (store *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if store.failReads.Load() {
		return "", errStorageDown
	}
	return store.MemoryKeyValueStore.Get(ctx, key)
}

func (store *flakyStore) SetMany(ctx context.Context, entries map[string]string) error {
	store.writes.Add(1)
	if store.failWrites.Load() {
		return errStorageDown
	}
	return store.MemoryKeyValueStore.SetMany(ctx, entries)
}

// # Service Fixture

type fixture struct {
	store       *flakyStore
	entities    *shotlist.EntityStore
	persistence *shotlist.Persistence
	service     *shotlist.Service
	state       shotlist.State
}

// newFixture boots a service on an empty store, which installs the seed project.
func newFixture(t *testing.T, opts ...shotlist.ServiceOption) *fixture {
	t.Helper()

	store := newFlakyStore()
	entities := newEntities()
	persistence := shotlist.NewPersistence(store, entities, "", discardLogger())
	service := shotlist.NewService(entities, persistence, discardLogger(), opts...)

	return &fixture{
		store:       store,
		entities:    entities,
		persistence: persistence,
		service:     service,
		state:       service.Load(context.Background()),
	}
}

func (f *fixture) seedProject() shotlist.Project {
	return f.state.Projects[0]
}

func (f *fixture) seedScene() shotlist.Scene {
	return f.state.Projects[0].Scenes[0]
}

func (f *fixture) seedShotRef(index int) shotlist.ShotRef {
	return shotlist.ShotRef{
		ProjectID: f.seedProject().ID,
		SceneID:   f.seedScene().ID,
		ShotID:    f.seedScene().Shots[index].ID,
	}
}

func sceneOf(t *testing.T, state shotlist.State, projectID, sceneID string) shotlist.Scene {
	t.Helper()

	project, ok := state.Projects.Project(projectID)
	if !ok {
		t.Fatalf("project %s missing", projectID)
	}
	scene, ok := project.Scene(sceneID)
	if !ok {
		t.Fatalf("scene %s missing", sceneID)
	}
	return scene
}
