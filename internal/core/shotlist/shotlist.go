// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package shotlist defines the production hierarchy (Project → Scene → Shot) and the
rules that keep it consistent while a crew edits it.

Core Responsibility:

  - Ordering: Shots carry a number that always equals their 1-based position.
  - Structure: Every mutation produces a fresh snapshot; inputs are never changed in place.
  - Selection: The current project, active scene and open shot editor always point at
    live entities (or are empty).
  - Durability: Snapshots are written through to a key-value substrate after each change.

The [Service] is the single owner of application state. Every other type in this
package is a value or a pure function over values.
*/
package shotlist

import (
	"time"

	"github.com/taibuivan/cinescript/pkg/pointer"
	"github.com/taibuivan/cinescript/pkg/slice"
)

// # Core Entities

// Project is the top-level container of a production's shot list.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Director    string    `json:"director"`
	DOP         string    `json:"dop"` // Director of Photography
	CreatedAt   time.Time `json:"created_at"`
	Scenes      []Scene   `json:"scenes"` // Display order
}

// Scene is a located, time-tagged container of shots within a [Project].
type Scene struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"` // Free-text label, e.g. "12A"
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	Lighting  Lighting  `json:"lighting"`
	Shots     []Shot    `json:"shots"`
}

// Shot is the atomic unit of cinematography.
type Shot struct {
	ID     string `json:"id"`
	Number int    `json:"number"` // Always 1 + position inside the owning scene

	// Revision increases on every accepted update. Collaborator responses computed
	// against an older revision are discarded.
	Revision int64 `json:"revision"`

	// Composition
	Size     ShotSize       `json:"size"`
	Angle    CameraAngle    `json:"angle"`
	Movement CameraMovement `json:"movement"`
	Framing  ShotFraming    `json:"framing"`
	Focus    FocusType      `json:"focus"`

	Description string `json:"description"`
	Notes       string `json:"notes"`
	ImageURL    string `json:"image_url,omitempty"` // Data URI or URL

	// Technical specs
	Lens       string `json:"lens"`
	Camera     string `json:"camera"`
	Aperture   string `json:"aperture"`
	FrameRate  int    `json:"fps"`
	Resolution string `json:"resolution"`
	ColorTemp  string `json:"color_temp"`

	// Assistant director tracking
	Timecode string     `json:"timecode,omitempty"`
	Takes    *int       `json:"takes,omitempty"`
	Status   ShotStatus `json:"status,omitempty"`
	ADNotes  string     `json:"ad_notes,omitempty"`
}

// Collection is the ordered list of projects. Insertion order is display order.
type Collection []Project

// ShotRef addresses a single shot inside a collection.
type ShotRef struct {
	ProjectID string `json:"project_id"`
	SceneID   string `json:"scene_id"`
	ShotID    string `json:"shot_id"`
}

// # Lookups

// Project returns the project with the given id.
func (collection Collection) Project(id string) (Project, bool) {
	index := collection.projectIndex(id)
	if index < 0 {
		return Project{}, false
	}
	return collection[index], true
}

// Scene returns the scene with the given id.
func (project Project) Scene(id string) (Scene, bool) {
	index := project.sceneIndex(id)
	if index < 0 {
		return Scene{}, false
	}
	return project.Scenes[index], true
}

// Shot returns the shot with the given id.
func (scene Scene) Shot(id string) (Shot, bool) {
	index := scene.shotIndex(id)
	if index < 0 {
		return Shot{}, false
	}
	return scene.Shots[index], true
}

// Shot resolves a [ShotRef] against the collection.
func (collection Collection) Shot(ref ShotRef) (Shot, bool) {
	project, ok := collection.Project(ref.ProjectID)
	if !ok {
		return Shot{}, false
	}
	scene, ok := project.Scene(ref.SceneID)
	if !ok {
		return Shot{}, false
	}
	return scene.Shot(ref.ShotID)
}

// ShotCount returns the number of shots across all scenes of the project.
func (project Project) ShotCount() int {
	return slice.Reduce(project.Scenes, 0, func(total int, scene Scene) int {
		return total + len(scene.Shots)
	})
}

func (collection Collection) projectIndex(id string) int {
	for i := range collection {
		if collection[i].ID == id {
			return i
		}
	}
	return -1
}

func (project Project) sceneIndex(id string) int {
	for i := range project.Scenes {
		if project.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}

func (scene Scene) shotIndex(id string) int {
	for i := range scene.Shots {
		if scene.Shots[i].ID == id {
			return i
		}
	}
	return -1
}

// # Copying

// Clone returns a deep copy of the collection so callers can derive a new snapshot
// without touching the original.
func (collection Collection) Clone() Collection {
	if collection == nil {
		return nil
	}
	cloned := make(Collection, len(collection))
	for i, project := range collection {
		cloned[i] = project.clone()
	}
	return cloned
}

func (project Project) clone() Project {
	if project.Scenes == nil {
		return project
	}
	scenes := make([]Scene, len(project.Scenes))
	for i, scene := range project.Scenes {
		scenes[i] = scene.clone()
	}
	project.Scenes = scenes
	return project
}

func (scene Scene) clone() Scene {
	if scene.Shots == nil {
		return scene
	}
	shots := make([]Shot, len(scene.Shots))
	for i, shot := range scene.Shots {
		shots[i] = shot.clone()
	}
	scene.Shots = shots
	return scene
}

func (shot Shot) clone() Shot {
	if shot.Takes != nil {
		shot.Takes = pointer.To(*shot.Takes)
	}
	return shot
}
