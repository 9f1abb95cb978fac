// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/cinescript/pkg/uuid"
)

// # Blank Entity Defaults

const (
	DefaultProjectName  = "UNTITLED PROJECT"
	DefaultCrewName     = "TBD"
	DefaultSceneTitle   = "NEW SCENE"
	DefaultLocation     = "TBD"
	DefaultFrameRate    = 24
	DefaultResolution   = "1080p"
	sceneNumberTemplate = "%dA"
)

// # Entity Store

// EntityStore performs every structural mutation of a [Collection].
//
// Each operation takes a snapshot and returns a new one; the input is never
// modified. Addressing an unknown id is a no-op that returns the input unchanged.
// A structurally malformed snapshot (missing or duplicated ids) is a programming
// error and panics.
type EntityStore struct {
	newID func() string
	now   func() time.Time
}

// StoreOption customizes an [EntityStore].
type StoreOption func(*EntityStore)

// WithIDGenerator overrides identifier generation (useful for tests).
func WithIDGenerator(generator func() string) StoreOption {
	return func(store *EntityStore) {
		if generator != nil {
			store.newID = generator
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(store *EntityStore) {
		if now != nil {
			store.now = now
		}
	}
}

// NewEntityStore constructs an [EntityStore] that issues UUIDv7 identifiers.
func NewEntityStore(opts ...StoreOption) *EntityStore {
	store := &EntityStore{
		newID: uuid.New,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// # Project Operations

// BlankProject returns an empty project with a fresh id and timestamp.
func (store *EntityStore) BlankProject() Project {
	return Project{
		ID:        store.newID(),
		Name:      DefaultProjectName,
		Director:  DefaultCrewName,
		DOP:       DefaultCrewName,
		CreatedAt: store.now(),
		Scenes:    []Scene{},
	}
}

// CreateProject appends a blank project and returns its id.
func (store *EntityStore) CreateProject(collection Collection) (Collection, string) {
	mustBeWellFormed(collection)

	project := store.BlankProject()
	next := append(collection.Clone(), project)

	return next, project.ID
}

// DeleteProject removes a project. Removing the last one inserts a blank replacement
// in the same step so the collection is never observed empty.
func (store *EntityStore) DeleteProject(collection Collection, projectID string) Collection {
	mustBeWellFormed(collection)

	index := collection.projectIndex(projectID)
	if index < 0 {
		return collection
	}

	next := collection.Clone()
	next = append(next[:index], next[index+1:]...)

	if len(next) == 0 {
		next = Collection{store.BlankProject()}
	}

	return next
}

// UpdateProject replaces the project that shares the given project's id.
func (store *EntityStore) UpdateProject(collection Collection, project Project) Collection {
	mustBeWellFormed(collection)

	index := collection.projectIndex(project.ID)
	if index < 0 {
		return collection
	}

	next := collection.Clone()
	next[index] = project.clone()

	return next
}

// # Scene Operations

// CreateScene appends a blank scene to the project. The id is empty when the
// project does not exist.
func (store *EntityStore) CreateScene(collection Collection, projectID string) (Collection, string) {
	mustBeWellFormed(collection)

	index := collection.projectIndex(projectID)
	if index < 0 {
		return collection, ""
	}

	next := collection.Clone()
	project := &next[index]

	scene := Scene{
		ID:        store.newID(),
		Number:    fmt.Sprintf(sceneNumberTemplate, len(project.Scenes)+1),
		Title:     DefaultSceneTitle,
		Location:  DefaultLocation,
		TimeOfDay: TimeOfDayExterior,
		Lighting:  LightingDay,
		Shots:     []Shot{},
	}
	project.Scenes = append(project.Scenes, scene)

	return next, scene.ID
}

// UpdateScene replaces the matching scene inside the project.
func (store *EntityStore) UpdateScene(collection Collection, projectID string, scene Scene) Collection {
	return store.editProject(collection, projectID, func(project *Project) bool {
		index := project.sceneIndex(scene.ID)
		if index < 0 {
			return false
		}
		project.Scenes[index] = scene.clone()
		return true
	})
}

// DeleteScene removes the scene and every shot it owns.
func (store *EntityStore) DeleteScene(collection Collection, projectID, sceneID string) Collection {
	return store.editProject(collection, projectID, func(project *Project) bool {
		index := project.sceneIndex(sceneID)
		if index < 0 {
			return false
		}
		project.Scenes = append(project.Scenes[:index], project.Scenes[index+1:]...)
		return true
	})
}

// # Shot Operations

// BlankShot returns a shot with default composition values and the given number.
func (store *EntityStore) BlankShot(number int) Shot {
	return Shot{
		ID:         store.newID(),
		Number:     number,
		Size:       ShotSizeMedium,
		Angle:      CameraAngleEyeLevel,
		Movement:   CameraMovementStatic,
		Framing:    ShotFramingSingle,
		Focus:      FocusStandard,
		FrameRate:  DefaultFrameRate,
		Resolution: DefaultResolution,
	}
}

// AddShot appends a blank shot numbered count+1. The id is empty when the
// project or scene does not exist.
func (store *EntityStore) AddShot(collection Collection, projectID, sceneID string) (Collection, string) {
	var shotID string

	next := store.editScene(collection, projectID, sceneID, func(scene *Scene) bool {
		shot := store.BlankShot(len(scene.Shots) + 1)
		scene.Shots = append(scene.Shots, shot)
		shotID = shot.ID
		return true
	})

	return next, shotID
}

// UpdateShot replaces the matching shot. The shot's number is stored exactly as
// supplied; plain updates never renumber.
func (store *EntityStore) UpdateShot(collection Collection, projectID, sceneID string, shot Shot) Collection {
	return store.editScene(collection, projectID, sceneID, func(scene *Scene) bool {
		index := scene.shotIndex(shot.ID)
		if index < 0 {
			return false
		}
		scene.Shots[index] = shot.clone()
		return true
	})
}

// DeleteShot removes the shot and renumbers the remaining shots of the scene.
func (store *EntityStore) DeleteShot(collection Collection, projectID, sceneID, shotID string) Collection {
	return store.editScene(collection, projectID, sceneID, func(scene *Scene) bool {
		index := scene.shotIndex(shotID)
		if index < 0 {
			return false
		}
		remaining := append(scene.Shots[:index], scene.Shots[index+1:]...)
		scene.Shots = Reindex(remaining)
		return true
	})
}

// MoveShot swaps the shot with its neighbour using [Move].
func (store *EntityStore) MoveShot(collection Collection, projectID, sceneID, shotID string, direction Direction) Collection {
	return store.editScene(collection, projectID, sceneID, func(scene *Scene) bool {
		if _, _, ok := swapTarget(scene.Shots, shotID, direction); !ok {
			return false
		}
		scene.Shots = Move(scene.Shots, shotID, direction)
		return true
	})
}

// # Internal Helpers

// editProject applies fn to a cloned project. When fn reports no change the
// original collection is returned untouched.
func (store *EntityStore) editProject(collection Collection, projectID string, fn func(*Project) bool) Collection {
	mustBeWellFormed(collection)

	index := collection.projectIndex(projectID)
	if index < 0 {
		return collection
	}

	next := collection.Clone()
	if !fn(&next[index]) {
		return collection
	}

	return next
}

// editScene applies fn to a cloned scene inside a cloned project.
func (store *EntityStore) editScene(collection Collection, projectID, sceneID string, fn func(*Scene) bool) Collection {
	return store.editProject(collection, projectID, func(project *Project) bool {
		index := project.sceneIndex(sceneID)
		if index < 0 {
			return false
		}
		return fn(&project.Scenes[index])
	})
}

// # Structural Validation

// ErrMalformedSnapshot marks a collection that violates id uniqueness.
var ErrMalformedSnapshot = errors.New("shotlist: malformed snapshot")

// Validate checks that every entity has an id and that ids are unique within
// their scope (projects globally, scenes per project, shots per scene).
func (collection Collection) Validate() error {
	projectIDs := make(map[string]struct{}, len(collection))

	for _, project := range collection {
		if err := checkID(projectIDs, "project", project.ID); err != nil {
			return err
		}

		sceneIDs := make(map[string]struct{}, len(project.Scenes))
		for _, scene := range project.Scenes {
			if err := checkID(sceneIDs, "scene", scene.ID); err != nil {
				return err
			}

			shotIDs := make(map[string]struct{}, len(scene.Shots))
			for _, shot := range scene.Shots {
				if err := checkID(shotIDs, "shot", shot.ID); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func checkID(seen map[string]struct{}, kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s without id", ErrMalformedSnapshot, kind)
	}
	if _, exists := seen[id]; exists {
		return fmt.Errorf("%w: duplicate %s id %q", ErrMalformedSnapshot, kind, id)
	}
	seen[id] = struct{}{}
	return nil
}

// mustBeWellFormed panics on malformed input. Callers never produce such snapshots,
// so reaching the panic means a bug upstream.
func mustBeWellFormed(collection Collection) {
	if err := collection.Validate(); err != nil {
		panic(err)
	}
}
