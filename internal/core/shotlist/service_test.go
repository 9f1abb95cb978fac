// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/internal/platform/apperr"
	"github.com/taibuivan/cinescript/pkg/pagination"
	"github.com/taibuivan/cinescript/pkg/pointer"
)

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	appErr := apperr.As(err)
	require.NotNil(t, appErr, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPStatus)
}

// reload boots a second service from the same storage, as a restart would.
func (f *fixture) reload() shotlist.State {
	service := shotlist.NewService(f.entities, f.persistence, discardLogger())
	return service.Load(context.Background())
}

// # Load

func TestService_Load_SeedsEmptyStore(t *testing.T) {
	f := newFixture(t)

	require.Len(t, f.state.Projects, 1)
	project := f.seedProject()
	assert.Equal(t, shotlist.SeedProjectName, project.Name)
	assert.Equal(t, "A. Kubrik", project.Director)
	assert.Equal(t, "R. Deakins", project.DOP)

	scene := f.seedScene()
	assert.Equal(t, "1A", scene.Number)
	assert.Equal(t, "The Awakening", scene.Title)
	assert.Equal(t, "Cryo Chamber", scene.Location)
	assert.Equal(t, shotlist.TimeOfDayInterior, scene.TimeOfDay)
	assert.Equal(t, shotlist.LightingArtificial, scene.Lighting)
	assert.Equal(t, []int{1, 2}, shotNumbers(scene.Shots))

	assert.Equal(t, project.ID, f.state.Selection.CurrentProjectID)
	assert.Equal(t, scene.ID, f.state.Selection.ActiveSceneID)
	assert.Nil(t, f.state.Selection.ActiveShot)
	assert.Equal(t, shotlist.SelectionProjectWithScene, f.state.Selection.State())
}

func TestService_Load_SeedSurvivesRestart(t *testing.T) {
	f := newFixture(t)

	restarted := f.reload()

	require.Len(t, restarted.Projects, 1)
	assert.Equal(t, f.seedProject().ID, restarted.Projects[0].ID)
	assert.Equal(t, f.seedProject().ID, restarted.Selection.CurrentProjectID)
}

func TestService_State_IsDetached(t *testing.T) {
	f := newFixture(t)

	state := f.service.State()
	state.Projects[0].Name = "Tampered"
	state.Projects[0].Scenes[0].Shots[0].Description = "Tampered"

	fresh := f.service.State()
	assert.Equal(t, shotlist.SeedProjectName, fresh.Projects[0].Name)
	assert.NotEqual(t, "Tampered", fresh.Projects[0].Scenes[0].Shots[0].Description)
}

func TestService_Ready(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.service.Ready(context.Background()))
}

// # Projects

func TestService_CreateProject_SwitchesToNewProject(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.service.CreateProject(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.ID)
	assert.Empty(t, outcome.Warning)
	require.Len(t, outcome.State.Projects, 2)
	assert.Equal(t, outcome.ID, outcome.State.Projects[1].ID)
	assert.Equal(t, shotlist.Selection{CurrentProjectID: outcome.ID}, outcome.State.Selection)

	restarted := f.reload()
	assert.Len(t, restarted.Projects, 2)
	assert.Equal(t, outcome.ID, restarted.Selection.CurrentProjectID)
}

func TestService_DeleteProject_LastProjectIsReplaced(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.service.DeleteProject(context.Background(), f.seedProject().ID)
	require.NoError(t, err)

	require.Len(t, outcome.State.Projects, 1)
	replacement := outcome.State.Projects[0]
	assert.Equal(t, shotlist.DefaultProjectName, replacement.Name)
	assert.Equal(t, replacement.ID, outcome.State.Selection.CurrentProjectID)
	assert.Empty(t, outcome.State.Selection.ActiveSceneID)
}

func TestService_DeleteProject_CurrentFallsBackToFirst(t *testing.T) {
	f := newFixture(t)
	created, err := f.service.CreateProject(context.Background())
	require.NoError(t, err)

	outcome, err := f.service.DeleteProject(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Len(t, outcome.State.Projects, 1)
	assert.Equal(t, f.seedProject().ID, outcome.State.Selection.CurrentProjectID)
	assert.Equal(t, f.seedScene().ID, outcome.State.Selection.ActiveSceneID)
}

func TestService_DeleteProject_OtherProjectKeepsSelection(t *testing.T) {
	f := newFixture(t)
	created, err := f.service.CreateProject(context.Background())
	require.NoError(t, err)

	outcome, err := f.service.DeleteProject(context.Background(), f.seedProject().ID)
	require.NoError(t, err)

	require.Len(t, outcome.State.Projects, 1)
	assert.Equal(t, created.ID, outcome.State.Selection.CurrentProjectID)
}

func TestService_UnknownTargetsAreNoops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject()
	scene := f.seedScene()

	operations := map[string]func() (shotlist.Outcome, error){
		"delete_project": func() (shotlist.Outcome, error) { return f.service.DeleteProject(ctx, "missing") },
		"select_project": func() (shotlist.Outcome, error) { return f.service.SelectProject(ctx, "missing") },
		"create_scene":   func() (shotlist.Outcome, error) { return f.service.CreateScene(ctx, "missing") },
		"delete_scene":   func() (shotlist.Outcome, error) { return f.service.DeleteScene(ctx, project.ID, "missing") },
		"select_scene":   func() (shotlist.Outcome, error) { return f.service.SelectScene(ctx, project.ID, "missing") },
		"add_shot":       func() (shotlist.Outcome, error) { return f.service.AddShot(ctx, project.ID, "missing") },
		"delete_shot":    func() (shotlist.Outcome, error) { return f.service.DeleteShot(ctx, project.ID, scene.ID, "missing") },
		"move_shot": func() (shotlist.Outcome, error) {
			return f.service.MoveShot(ctx, project.ID, scene.ID, "missing", shotlist.DirectionUp)
		},
		"update_shot": func() (shotlist.Outcome, error) {
			shot := scene.Shots[0]
			shot.ID = "missing"
			return f.service.UpdateShot(ctx, project.ID, scene.ID, shot)
		},
	}

	for name, operation := range operations {
		t.Run(name, func(t *testing.T) {
			outcome, err := operation()
			require.NoError(t, err)
			assert.Empty(t, outcome.ID)
			assert.Equal(t, f.state, outcome.State)
		})
	}
}

func TestService_UpdateProjectDetails(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject()

	outcome, err := f.service.UpdateProjectDetails(context.Background(), project.ID, shotlist.ProjectDetails{
		Name:     "Neon Protocol II",
		Director: "S. Kubrick",
		DOP:      "G. Unsworth",
	})
	require.NoError(t, err)

	updated := outcome.State.Projects[0]
	assert.Equal(t, "Neon Protocol II", updated.Name)
	assert.Equal(t, "S. Kubrick", updated.Director)
	assert.Equal(t, "G. Unsworth", updated.DOP)
	assert.Empty(t, updated.Description)
	assert.Equal(t, project.CreatedAt, updated.CreatedAt)
	assert.Equal(t, project.Scenes, updated.Scenes)
}

func TestService_UpdateProjectDetails_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateProjectDetails(context.Background(), f.seedProject().ID, shotlist.ProjectDetails{})

	requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, f.state, f.service.State())
}

func TestService_SelectProject(t *testing.T) {
	f := newFixture(t)
	created, err := f.service.CreateProject(context.Background())
	require.NoError(t, err)

	outcome, err := f.service.SelectProject(context.Background(), f.seedProject().ID)
	require.NoError(t, err)

	assert.Equal(t, f.seedProject().ID, outcome.State.Selection.CurrentProjectID)
	assert.Equal(t, f.seedScene().ID, outcome.State.Selection.ActiveSceneID)
	assert.NotEqual(t, created.ID, outcome.State.Selection.CurrentProjectID)
}

func TestService_ListProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 4 {
		_, err := f.service.CreateProject(ctx)
		require.NoError(t, err)
	}

	page, total := f.service.ListProjects(pagination.Params{Page: 2, Limit: 2})
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, shotlist.DefaultProjectName, page[0].Name)

	first, _ := f.service.ListProjects(pagination.Params{Page: 1, Limit: 2})
	assert.Equal(t, shotlist.SeedProjectName, first[0].Name)
	assert.Equal(t, 1, first[0].SceneCount)
	assert.Equal(t, 2, first[0].ShotCount)

	beyond, total := f.service.ListProjects(pagination.Params{Page: 9, Limit: 2})
	assert.Equal(t, 5, total)
	assert.Empty(t, beyond)
}

func TestService_GetProject(t *testing.T) {
	f := newFixture(t)

	project, err := f.service.GetProject(f.seedProject().ID)
	require.NoError(t, err)
	assert.Equal(t, f.seedProject(), project)

	_, err = f.service.GetProject("missing")
	requireStatus(t, err, http.StatusNotFound)
}

// # Scenes

func TestService_CreateScene_SelectsNewScene(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject()

	outcome, err := f.service.CreateScene(context.Background(), project.ID)
	require.NoError(t, err)

	scene := sceneOf(t, outcome.State, project.ID, outcome.ID)
	assert.Equal(t, "2A", scene.Number)
	assert.Equal(t, outcome.ID, outcome.State.Selection.ActiveSceneID)
}

func TestService_CreateScene_OtherProjectKeepsSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.service.CreateProject(ctx)
	require.NoError(t, err)
	_, err = f.service.SelectProject(ctx, f.seedProject().ID)
	require.NoError(t, err)

	outcome, err := f.service.CreateScene(ctx, created.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.ID)
	assert.Equal(t, f.seedProject().ID, outcome.State.Selection.CurrentProjectID)
	assert.Equal(t, f.seedScene().ID, outcome.State.Selection.ActiveSceneID)
}

func TestService_UpdateScene(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject()
	scene := f.seedScene()

	outcome, err := f.service.UpdateScene(context.Background(), project.ID, scene.ID, shotlist.SceneDetails{
		Number:    "4B",
		Title:     "The Escape",
		Location:  "Rooftop",
		TimeOfDay: shotlist.TimeOfDayExterior,
		Lighting:  shotlist.LightingNight,
	})
	require.NoError(t, err)

	updated := sceneOf(t, outcome.State, project.ID, scene.ID)
	assert.Equal(t, "4B", updated.Number)
	assert.Equal(t, "The Escape", updated.Title)
	assert.Equal(t, shotlist.LightingNight, updated.Lighting)
	assert.Equal(t, scene.Shots, updated.Shots)
}

func TestService_UpdateScene_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateScene(context.Background(), f.seedProject().ID, f.seedScene().ID, shotlist.SceneDetails{
		TimeOfDay: "INSIDE",
		Lighting:  shotlist.LightingDay,
	})

	requireStatus(t, err, http.StatusBadRequest)
}

func TestService_DeleteScene_ClearsActiveScene(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.service.DeleteScene(context.Background(), f.seedProject().ID, f.seedScene().ID)
	require.NoError(t, err)

	assert.Empty(t, outcome.State.Projects[0].Scenes)
	assert.Equal(t, shotlist.SelectionProjectNoScene, outcome.State.Selection.State())
}

func TestService_DeleteScene_FallsBackToFirstScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject()

	created, err := f.service.CreateScene(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, created.State.Selection.ActiveSceneID)

	outcome, err := f.service.DeleteScene(ctx, project.ID, created.ID)
	require.NoError(t, err)

	assert.Equal(t, f.seedScene().ID, outcome.State.Selection.ActiveSceneID)
}

func TestService_SelectScene_SwitchesProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateProject(ctx)
	require.NoError(t, err)

	outcome, err := f.service.SelectScene(ctx, f.seedProject().ID, f.seedScene().ID)
	require.NoError(t, err)

	assert.Equal(t, f.seedProject().ID, outcome.State.Selection.CurrentProjectID)
	assert.Equal(t, f.seedScene().ID, outcome.State.Selection.ActiveSceneID)
}

// # Shots

func TestService_AddShot_OpensEditor(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject()
	scene := f.seedScene()

	outcome, err := f.service.AddShot(context.Background(), project.ID, scene.ID)
	require.NoError(t, err)

	shots := sceneOf(t, outcome.State, project.ID, scene.ID).Shots
	assert.Equal(t, []int{1, 2, 3}, shotNumbers(shots))
	assert.Equal(t, outcome.ID, shots[2].ID)

	require.NotNil(t, outcome.State.Selection.ActiveShot)
	assert.Equal(t, outcome.ID, outcome.State.Selection.ActiveShot.ID)
	assert.Equal(t, scene.ID, outcome.State.Selection.ActiveSceneID)
}

func TestService_UpdateShot_KeepsNumberAndBumpsRevision(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject()
	scene := f.seedScene()

	shot := scene.Shots[0]
	shot.Number = 99
	shot.Description = "Eyes open"
	shot.Takes = pointer.To(2)
	shot.Status = shotlist.ShotStatusInProgress

	outcome, err := f.service.UpdateShot(context.Background(), project.ID, scene.ID, shot)
	require.NoError(t, err)

	shots := sceneOf(t, outcome.State, project.ID, scene.ID).Shots
	assert.Equal(t, []int{1, 2}, shotNumbers(shots))
	assert.Equal(t, "Eyes open", shots[0].Description)
	assert.Equal(t, 2, pointer.Val(shots[0].Takes))
	assert.Equal(t, scene.Shots[0].Revision+1, shots[0].Revision)
}

func TestService_UpdateShot_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*shotlist.Shot)
	}{
		{name: "zero_fps", mutate: func(shot *shotlist.Shot) { shot.FrameRate = 0 }},
		{name: "negative_takes", mutate: func(shot *shotlist.Shot) { shot.Takes = pointer.To(-1) }},
		{name: "unknown_size", mutate: func(shot *shotlist.Shot) { shot.Size = "Huge" }},
		{name: "unknown_status", mutate: func(shot *shotlist.Shot) { shot.Status = "Done" }},
		{name: "missing_id", mutate: func(shot *shotlist.Shot) { shot.ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			shot := f.seedScene().Shots[0]
			tt.mutate(&shot)

			_, err := f.service.UpdateShot(context.Background(), f.seedProject().ID, f.seedScene().ID, shot)

			requireStatus(t, err, http.StatusBadRequest)
			assert.Equal(t, f.state, f.service.State())
		})
	}
}

func TestService_DeleteShot_RenumbersAndClosesEditor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.seedShotRef(0)

	_, err := f.service.OpenShot(ctx, ref)
	require.NoError(t, err)

	outcome, err := f.service.DeleteShot(ctx, ref.ProjectID, ref.SceneID, ref.ShotID)
	require.NoError(t, err)

	shots := sceneOf(t, outcome.State, ref.ProjectID, ref.SceneID).Shots
	assert.Equal(t, []string{f.seedScene().Shots[1].ID}, shotIDs(shots))
	assert.Equal(t, []int{1}, shotNumbers(shots))
	assert.Nil(t, outcome.State.Selection.ActiveShot)
}

func TestService_MoveShot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject()
	scene := f.seedScene()

	outcome, err := f.service.MoveShot(ctx, project.ID, scene.ID, scene.Shots[1].ID, shotlist.DirectionUp)
	require.NoError(t, err)

	shots := sceneOf(t, outcome.State, project.ID, scene.ID).Shots
	assert.Equal(t, []string{scene.Shots[1].ID, scene.Shots[0].ID}, shotIDs(shots))
	assert.Equal(t, []int{1, 2}, shotNumbers(shots))

	boundary, err := f.service.MoveShot(ctx, project.ID, scene.ID, scene.Shots[1].ID, shotlist.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, outcome.State, boundary.State)
}

func TestService_MoveShot_InvalidDirection(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.MoveShot(context.Background(), f.seedProject().ID, f.seedScene().ID, f.seedScene().Shots[0].ID, "left")

	requireStatus(t, err, http.StatusBadRequest)
}

// # Shot Editor

func TestService_EditSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.seedShotRef(1)

	opened, err := f.service.OpenShot(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, opened.State.Selection.ActiveShot)

	edited := *opened.State.Selection.ActiveShot
	edited.Notes = "Haze and backlight"

	saved, err := f.service.SaveActiveShot(ctx, edited)
	require.NoError(t, err)

	assert.Nil(t, saved.State.Selection.ActiveShot)
	shot, ok := saved.State.Projects.Shot(ref)
	require.True(t, ok)
	assert.Equal(t, "Haze and backlight", shot.Notes)
	assert.Equal(t, 2, shot.Number)
}

func TestService_OpenShot_SwitchesProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateProject(ctx)
	require.NoError(t, err)

	outcome, err := f.service.OpenShot(ctx, f.seedShotRef(0))
	require.NoError(t, err)

	assert.Equal(t, f.seedProject().ID, outcome.State.Selection.CurrentProjectID)
	require.NotNil(t, outcome.State.Selection.ActiveShot)
	assert.Equal(t, f.seedShotRef(0).ShotID, outcome.State.Selection.ActiveShot.ID)
}

func TestService_OpenShot_Unknown(t *testing.T) {
	f := newFixture(t)
	ref := f.seedShotRef(0)
	ref.ShotID = "missing"

	_, err := f.service.OpenShot(context.Background(), ref)

	requireStatus(t, err, http.StatusNotFound)
}

func TestService_SaveActiveShot_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shot := f.seedScene().Shots[0]

	_, err := f.service.SaveActiveShot(ctx, shot)
	requireStatus(t, err, http.StatusUnprocessableEntity)

	_, err = f.service.OpenShot(ctx, f.seedShotRef(1))
	require.NoError(t, err)

	_, err = f.service.SaveActiveShot(ctx, shot)
	requireStatus(t, err, http.StatusConflict)
}

func TestService_CloseShot_DiscardsEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.OpenShot(ctx, f.seedShotRef(0))
	require.NoError(t, err)

	outcome, err := f.service.CloseShot(ctx)
	require.NoError(t, err)

	assert.Nil(t, outcome.State.Selection.ActiveShot)
	assert.Equal(t, f.state.Projects, outcome.State.Projects)
}

// # Write-Through

func TestService_SaveFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.failWrites.Store(true)

	outcome, err := f.service.CreateProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, shotlist.SaveWarning, outcome.Warning)
	assert.Len(t, f.service.State().Projects, 2, "in-memory state is not rolled back")

	f.store.failWrites.Store(false)

	outcome, err = f.service.CreateProject(ctx)
	require.NoError(t, err)
	assert.Empty(t, outcome.Warning)
	assert.Len(t, f.reload().Projects, 3)
}

func TestService_EveryMutationWritesThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.store.writes.Load()

	_, err := f.service.SelectProject(ctx, f.seedProject().ID)
	require.NoError(t, err)
	_, err = f.service.AddShot(ctx, f.seedProject().ID, f.seedScene().ID)
	require.NoError(t, err)

	assert.Equal(t, before+2, f.store.writes.Load())
}

// # Invariants

func TestService_DuplicateIDIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
	}{
		{name: "lenient", strict: false},
		{name: "strict", strict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			// The seed consumes id-1 through id-4; everything after collides with the seed project.
			var issued int
			entities := shotlist.NewEntityStore(shotlist.WithIDGenerator(func() string {
				issued++
				if issued > 4 {
					return "id-1"
				}
				return fmt.Sprintf("id-%d", issued)
			}))

			store := newFlakyStore()
			persistence := shotlist.NewPersistence(store, entities, "", discardLogger())
			service := shotlist.NewService(entities, persistence, discardLogger(), shotlist.WithStrictInvariants(tt.strict))
			before := service.Load(ctx)
			writes := store.writes.Load()

			_, err := service.CreateProject(ctx)

			requireStatus(t, err, http.StatusInternalServerError)
			assert.Equal(t, "INVARIANT_VIOLATION", apperr.As(err).Code)
			assert.Equal(t, before, service.State(), "state is untouched")
			assert.Equal(t, writes, store.writes.Load(), "nothing is persisted")
		})
	}
}

func TestService_ConcurrentAddShotKeepsNumbering(t *testing.T) {
	f := newFixture(t, shotlist.WithStrictInvariants(true))
	ctx := context.Background()
	project := f.seedProject()
	scene := f.seedScene()

	const workers = 25

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.AddShot(ctx, project.ID, scene.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	shots := sceneOf(t, f.service.State(), project.ID, scene.ID).Shots
	require.Len(t, shots, workers+2)
	assert.NoError(t, shotlist.CheckNumbering(shots))
}
