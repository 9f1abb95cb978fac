// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import "fmt"

// # Selection Tracker

// SelectionState names the tracker's observable state.
type SelectionState string

const (
	// SelectionEmpty only exists while the collection itself is empty.
	SelectionEmpty SelectionState = "empty"

	// SelectionProjectNoScene means the current project has no active scene.
	SelectionProjectNoScene SelectionState = "project_no_scene"

	// SelectionProjectWithScene means an active scene of the current project is selected.
	SelectionProjectWithScene SelectionState = "project_with_scene"
)

// Selection holds the non-owning pointers into the collection.
//
// Every field is a lookup key, re-validated against the live snapshot after each
// mutation. ActiveShot is a detached editing copy and is never persisted.
type Selection struct {
	CurrentProjectID string `json:"current_project_id"`
	ActiveSceneID    string `json:"active_scene_id,omitempty"`
	ActiveShot       *Shot  `json:"active_shot,omitempty"`
}

// State reports which tracker state the selection is in.
func (selection Selection) State() SelectionState {
	switch {
	case selection.CurrentProjectID == "":
		return SelectionEmpty
	case selection.ActiveSceneID == "":
		return SelectionProjectNoScene
	default:
		return SelectionProjectWithScene
	}
}

// # Transitions

/*
SwitchProject makes projectID the current project.

Description: The first scene of the project becomes active (or none when it has
no scenes) and any open shot editor is closed. Unknown ids leave the selection
unchanged.

Parameters:
  - collection: Collection (Live snapshot)
  - projectID: string

Returns:
  - Selection: The next selection
*/
func (selection Selection) SwitchProject(collection Collection, projectID string) Selection {
	project, ok := collection.Project(projectID)
	if !ok {
		return selection
	}

	return Selection{
		CurrentProjectID: project.ID,
		ActiveSceneID:    firstSceneID(project),
	}
}

// SelectScene activates a scene of the current project. Changing scene closes
// the shot editor; unknown scenes leave the selection unchanged.
func (selection Selection) SelectScene(collection Collection, sceneID string) Selection {
	project, ok := collection.Project(selection.CurrentProjectID)
	if !ok {
		return selection
	}
	if _, ok := project.Scene(sceneID); !ok {
		return selection
	}

	next := selection
	if next.ActiveSceneID != sceneID {
		next.ActiveShot = nil
	}
	next.ActiveSceneID = sceneID

	return next
}

// OpenShot selects the shot's scene and opens a detached editing copy of the shot.
// The shot must belong to the current project.
func (selection Selection) OpenShot(collection Collection, sceneID, shotID string) Selection {
	shot, ok := collection.Shot(ShotRef{
		ProjectID: selection.CurrentProjectID,
		SceneID:   sceneID,
		ShotID:    shotID,
	})
	if !ok {
		return selection
	}

	snapshot := shot.clone()

	return Selection{
		CurrentProjectID: selection.CurrentProjectID,
		ActiveSceneID:    sceneID,
		ActiveShot:       &snapshot,
	}
}

// CloseShot discards the editing copy.
func (selection Selection) CloseShot() Selection {
	selection.ActiveShot = nil
	return selection
}

/*
Reconcile re-validates every pointer against the new snapshot.

Description: Runs after each mutation.
  - A missing current project falls back to the first project (or empty), which
    behaves like a project switch.
  - A missing active scene falls back to the first scene of the current project,
    or clears when the project has none.
  - An editing copy whose shot no longer exists in the active scene is discarded.

Parameters:
  - collection: Collection (Snapshot after the mutation)

Returns:
  - Selection: A selection that references only live entities
*/
func (selection Selection) Reconcile(collection Collection) Selection {
	if len(collection) == 0 {
		return Selection{}
	}

	project, ok := collection.Project(selection.CurrentProjectID)
	if !ok {
		return Selection{}.SwitchProject(collection, collection[0].ID)
	}

	next := selection
	scene, ok := project.Scene(next.ActiveSceneID)
	if !ok {
		next.ActiveSceneID = firstSceneID(project)
		next.ActiveShot = nil
		return next
	}

	if next.ActiveShot != nil {
		if _, ok := scene.Shot(next.ActiveShot.ID); !ok {
			next.ActiveShot = nil
		}
	}

	return next
}

// Validate reports whether every pointer references a live entity.
func (selection Selection) Validate(collection Collection) error {
	if len(collection) == 0 {
		if selection != (Selection{}) {
			return fmt.Errorf("selection %+v on empty collection", selection)
		}
		return nil
	}

	project, ok := collection.Project(selection.CurrentProjectID)
	if !ok {
		return fmt.Errorf("current project %q does not exist", selection.CurrentProjectID)
	}

	if selection.ActiveSceneID == "" {
		if len(project.Scenes) > 0 {
			return fmt.Errorf("project %q has scenes but none is active", project.ID)
		}
		if selection.ActiveShot != nil {
			return fmt.Errorf("shot editor open without an active scene")
		}
		return nil
	}

	scene, ok := project.Scene(selection.ActiveSceneID)
	if !ok {
		return fmt.Errorf("active scene %q is not in project %q", selection.ActiveSceneID, project.ID)
	}

	if selection.ActiveShot != nil {
		if _, ok := scene.Shot(selection.ActiveShot.ID); !ok {
			return fmt.Errorf("open shot %q is not in scene %q", selection.ActiveShot.ID, scene.ID)
		}
	}

	return nil
}

func firstSceneID(project Project) string {
	if len(project.Scenes) == 0 {
		return ""
	}
	return project.Scenes[0].ID
}
