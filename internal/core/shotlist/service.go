// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/cinescript/internal/platform/apperr"
	"github.com/taibuivan/cinescript/internal/platform/validate"
	"github.com/taibuivan/cinescript/pkg/pagination"
	"github.com/taibuivan/cinescript/pkg/pointer"
)

// SaveWarning is reported when a mutation was applied in memory but could not be persisted.
const SaveWarning = "Changes are applied but could not be saved; they will be lost on restart."

// # Field Names

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldDirector    = "director"
	FieldDOP         = "dop"
	FieldNumber      = "number"
	FieldTitle       = "title"
	FieldLocation    = "location"
	FieldTimeOfDay   = "time_of_day"
	FieldLighting    = "lighting"
	FieldSize        = "size"
	FieldAngle       = "angle"
	FieldMovement    = "movement"
	FieldFraming     = "framing"
	FieldFocus       = "focus"
	FieldFrameRate   = "fps"
	FieldTakes       = "takes"
	FieldStatus      = "status"
	FieldDirection   = "direction"
	FieldShotID      = "id"
)

// # State Snapshots

// State is the externally visible application state.
type State struct {
	Projects  Collection `json:"projects"`
	Selection Selection  `json:"selection"`
}

// Outcome is the result of an accepted mutation.
type Outcome struct {
	State State

	// ID is the identifier of a newly created entity, if any.
	ID string

	// Warning is non-empty when the write-through failed.
	Warning string
}

// ProjectSummary is a lightweight listing row for a project.
type ProjectSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Director   string    `json:"director"`
	DOP        string    `json:"dop"`
	CreatedAt  time.Time `json:"created_at"`
	SceneCount int       `json:"scene_count"`
	ShotCount  int       `json:"shot_count"`
}

// Summarize builds the listing row for project.
func Summarize(project Project) ProjectSummary {
	return ProjectSummary{
		ID:         project.ID,
		Name:       project.Name,
		Director:   project.Director,
		DOP:        project.DOP,
		CreatedAt:  project.CreatedAt,
		SceneCount: len(project.Scenes),
		ShotCount:  project.ShotCount(),
	}
}

// ProjectDetails carries the editable fields of a project.
type ProjectDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Director    string `json:"director"`
	DOP         string `json:"dop"`
}

// SceneDetails carries the editable fields of a scene.
type SceneDetails struct {
	Number    string    `json:"number"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	Lighting  Lighting  `json:"lighting"`
}

// # Service Layer

// Service is the single owner of the shot list state.
//
// Every mutation runs under one lock: the next snapshot is derived, the
// selection is reconciled, invariants are checked and the result is written
// through to storage before the lock is released. Collaborator calls run
// outside the lock.
type Service struct {
	mu sync.Mutex

	entities    *EntityStore
	persistence *Persistence
	enricher    Enricher
	images      ImageSynthesizer
	logger      *slog.Logger
	strict      bool

	projects  Collection
	selection Selection
}

// ServiceOption customizes a [Service].
type ServiceOption func(*Service)

// WithEnricher attaches the shot suggestion collaborator.
func WithEnricher(enricher Enricher) ServiceOption {
	return func(service *Service) { service.enricher = enricher }
}

// WithImageSynthesizer attaches the image collaborator.
func WithImageSynthesizer(images ImageSynthesizer) ServiceOption {
	return func(service *Service) { service.images = images }
}

// WithStrictInvariants makes invariant violations fail the mutation instead of
// being repaired.
func WithStrictInvariants(strict bool) ServiceOption {
	return func(service *Service) { service.strict = strict }
}

// NewService constructs a [Service]. Call [Service.Load] before serving requests.
func NewService(entities *EntityStore, persistence *Persistence, logger *slog.Logger, opts ...ServiceOption) *Service {
	service := &Service{
		entities:    entities,
		persistence: persistence,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

/*
Load restores the persisted snapshot and selects the saved current project.

Parameters:
  - context: context.Context

Returns:
  - State: The restored state
*/
func (service *Service) Load(context context.Context) State {
	service.mu.Lock()
	defer service.mu.Unlock()

	projects, currentID := service.persistence.Load(context)

	service.projects = projects
	service.selection = Selection{}.SwitchProject(projects, currentID)

	service.logger.Info("snapshot_loaded",
		slog.Int("projects", len(projects)),
		slog.String("current_project_id", currentID),
	)

	return service.snapshot()
}

// State returns a detached copy of the current state.
func (service *Service) State() State {
	service.mu.Lock()
	defer service.mu.Unlock()

	return service.snapshot()
}

// Ready reports whether the storage substrate is reachable.
func (service *Service) Ready(context context.Context) error {
	return service.persistence.Ping(context)
}

// # Project Lookups

/*
ListProjects returns one page of project summaries in display order.

Parameters:
  - params: pagination.Params

Returns:
  - []ProjectSummary: Page contents
  - int: Total number of projects
*/
func (service *Service) ListProjects(params pagination.Params) ([]ProjectSummary, int) {
	service.mu.Lock()
	defer service.mu.Unlock()

	total := len(service.projects)
	start, end := params.Window(total)

	summaries := make([]ProjectSummary, 0, end-start)
	for _, project := range service.projects[start:end] {
		summaries = append(summaries, Summarize(project))
	}

	return summaries, total
}

// GetProject returns a copy of a single project.
func (service *Service) GetProject(projectID string) (Project, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	project, ok := service.projects.Project(projectID)
	if !ok {
		return Project{}, apperr.NotFound("Project")
	}

	return project.clone(), nil
}

// # Project Management

// CreateProject appends a blank project and makes it current.
func (service *Service) CreateProject(context context.Context) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next, projectID := service.entities.CreateProject(service.projects)
	selection := service.selection.SwitchProject(next, projectID)

	return service.commit(context, "project_created", next, selection, projectID,
		slog.String("project_id", projectID),
	)
}

// DeleteProject removes a project. The collection is refilled with a blank
// project when the last one goes, and the selection falls back to the first project.
func (service *Service) DeleteProject(context context.Context, projectID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.entities.DeleteProject(service.projects, projectID)

	return service.commit(context, "project_deleted", next, service.selection, "",
		slog.String("project_id", projectID),
	)
}

/*
UpdateProjectDetails edits a project's metadata. Scenes and the creation time
are preserved.

Parameters:
  - context: context.Context
  - projectID: string
  - details: ProjectDetails

Returns:
  - Outcome: The next state
  - error: Validation errors
*/
func (service *Service) UpdateProjectDetails(context context.Context, projectID string, details ProjectDetails) (Outcome, error) {

	// Attribute validation
	validator := &validate.Validator{}
	validator.Required(FieldName, details.Name).MaxLen(FieldName, details.Name, 200)
	validator.MaxLen(FieldDescription, details.Description, 2000)
	validator.MaxLen(FieldDirector, details.Director, 200)
	validator.MaxLen(FieldDOP, details.DOP, 200)
	if err := validator.Err(); err != nil {
		return Outcome{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.projects
	if project, ok := service.projects.Project(projectID); ok {
		project.Name = details.Name
		project.Description = details.Description
		project.Director = details.Director
		project.DOP = details.DOP
		next = service.entities.UpdateProject(service.projects, project)
	}

	return service.commit(context, "project_updated", next, service.selection, "",
		slog.String("project_id", projectID),
	)
}

// SelectProject switches the current project. Unknown ids leave the selection unchanged.
func (service *Service) SelectProject(context context.Context, projectID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	selection := service.selection.SwitchProject(service.projects, projectID)

	return service.commit(context, "project_selected", service.projects, selection, "",
		slog.String("project_id", projectID),
	)
}

// # Scene Management

// CreateScene appends a blank scene. A scene added to the current project becomes active.
func (service *Service) CreateScene(context context.Context, projectID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next, sceneID := service.entities.CreateScene(service.projects, projectID)

	selection := service.selection
	if sceneID != "" && projectID == selection.CurrentProjectID {
		selection = selection.SelectScene(next, sceneID)
	}

	return service.commit(context, "scene_created", next, selection, sceneID,
		slog.String("project_id", projectID),
		slog.String("scene_id", sceneID),
	)
}

/*
UpdateScene edits a scene's header. Its shots are preserved.

Parameters:
  - context: context.Context
  - projectID: string
  - sceneID: string
  - details: SceneDetails

Returns:
  - Outcome: The next state
  - error: Validation errors
*/
func (service *Service) UpdateScene(context context.Context, projectID, sceneID string, details SceneDetails) (Outcome, error) {

	// Attribute validation
	validator := &validate.Validator{}
	validator.MaxLen(FieldNumber, details.Number, 20)
	validator.MaxLen(FieldTitle, details.Title, 200)
	validator.MaxLen(FieldLocation, details.Location, 200)
	validator.Custom(FieldTimeOfDay, !details.TimeOfDay.IsValid(), "Unknown time of day")
	validator.Custom(FieldLighting, !details.Lighting.IsValid(), "Unknown lighting")
	if err := validator.Err(); err != nil {
		return Outcome{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.projects
	if project, ok := service.projects.Project(projectID); ok {
		if scene, ok := project.Scene(sceneID); ok {
			scene.Number = details.Number
			scene.Title = details.Title
			scene.Location = details.Location
			scene.TimeOfDay = details.TimeOfDay
			scene.Lighting = details.Lighting
			next = service.entities.UpdateScene(service.projects, projectID, scene)
		}
	}

	return service.commit(context, "scene_updated", next, service.selection, "",
		slog.String("project_id", projectID),
		slog.String("scene_id", sceneID),
	)
}

// DeleteScene removes a scene together with its shots.
func (service *Service) DeleteScene(context context.Context, projectID, sceneID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.entities.DeleteScene(service.projects, projectID, sceneID)

	return service.commit(context, "scene_deleted", next, service.selection, "",
		slog.String("project_id", projectID),
		slog.String("scene_id", sceneID),
	)
}

// SelectScene activates a scene, switching to its project first when needed.
func (service *Service) SelectScene(context context.Context, projectID, sceneID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	selection := service.selection
	if projectID != selection.CurrentProjectID {
		selection = selection.SwitchProject(service.projects, projectID)
	}
	selection = selection.SelectScene(service.projects, sceneID)

	return service.commit(context, "scene_selected", service.projects, selection, "",
		slog.String("project_id", projectID),
		slog.String("scene_id", sceneID),
	)
}

// # Shot Management

// AddShot appends a blank shot. When it lands in the current project its scene
// becomes active and the new shot is opened for editing.
func (service *Service) AddShot(context context.Context, projectID, sceneID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next, shotID := service.entities.AddShot(service.projects, projectID, sceneID)

	selection := service.selection
	if shotID != "" && projectID == selection.CurrentProjectID {
		selection = selection.OpenShot(next, sceneID, shotID)
	}

	return service.commit(context, "shot_added", next, selection, shotID,
		slog.String("scene_id", sceneID),
		slog.String("shot_id", shotID),
	)
}

/*
UpdateShot replaces a shot's fields.

Description: The stored number is kept, so an update can never reorder the
scene. The revision is advanced, which invalidates any collaborator result
computed against the previous content.

Parameters:
  - context: context.Context
  - projectID: string
  - sceneID: string
  - shot: Shot (Matched by ID)

Returns:
  - Outcome: The next state
  - error: Validation errors
*/
func (service *Service) UpdateShot(context context.Context, projectID, sceneID string, shot Shot) (Outcome, error) {
	if err := validateShot(shot); err != nil {
		return Outcome{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.replaceShot(projectID, sceneID, shot)

	return service.commit(context, "shot_updated", next, service.selection, "",
		slog.String("scene_id", sceneID),
		slog.String("shot_id", shot.ID),
	)
}

// DeleteShot removes a shot and renumbers its scene.
func (service *Service) DeleteShot(context context.Context, projectID, sceneID, shotID string) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.entities.DeleteShot(service.projects, projectID, sceneID, shotID)

	return service.commit(context, "shot_deleted", next, service.selection, "",
		slog.String("scene_id", sceneID),
		slog.String("shot_id", shotID),
	)
}

// MoveShot swaps a shot with its neighbour. Boundary moves are no-ops.
func (service *Service) MoveShot(context context.Context, projectID, sceneID, shotID string, direction Direction) (Outcome, error) {
	if !direction.IsValid() {
		return Outcome{}, validate.RequiredError(FieldDirection, `Must be "up" or "down"`)
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.entities.MoveShot(service.projects, projectID, sceneID, shotID, direction)

	return service.commit(context, "shot_moved", next, service.selection, "",
		slog.String("scene_id", sceneID),
		slog.String("shot_id", shotID),
		slog.String("direction", string(direction)),
	)
}

// # Shot Editor

// OpenShot opens an editing copy of a shot, switching project and scene as needed.
func (service *Service) OpenShot(context context.Context, ref ShotRef) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if _, ok := service.projects.Shot(ref); !ok {
		return Outcome{}, apperr.NotFound("Shot")
	}

	selection := service.selection
	if ref.ProjectID != selection.CurrentProjectID {
		selection = selection.SwitchProject(service.projects, ref.ProjectID)
	}
	selection = selection.OpenShot(service.projects, ref.SceneID, ref.ShotID)

	return service.commit(context, "shot_opened", service.projects, selection, "",
		slog.String("scene_id", ref.SceneID),
		slog.String("shot_id", ref.ShotID),
	)
}

/*
SaveActiveShot stores the edited copy of the open shot and closes the editor.

Parameters:
  - context: context.Context
  - edited: Shot (Must carry the open shot's id)

Returns:
  - Outcome: The next state
  - error: Unprocessable when no shot is open, Conflict on an id mismatch, validation errors
*/
func (service *Service) SaveActiveShot(context context.Context, edited Shot) (Outcome, error) {
	if err := validateShot(edited); err != nil {
		return Outcome{}, err
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	active := service.selection.ActiveShot
	if active == nil {
		return Outcome{}, apperr.Unprocessable("No shot is open for editing")
	}
	if edited.ID != active.ID {
		return Outcome{}, apperr.Conflict("Edited shot does not match the open shot")
	}

	next := service.replaceShot(service.selection.CurrentProjectID, service.selection.ActiveSceneID, edited)
	selection := service.selection.CloseShot()

	return service.commit(context, "shot_saved", next, selection, "",
		slog.String("shot_id", edited.ID),
	)
}

// CloseShot discards the editing copy without saving.
func (service *Service) CloseShot(context context.Context) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	return service.commit(context, "shot_closed", service.projects, service.selection.CloseShot(), "")
}

// # Internal Helpers

// replaceShot applies an update keeping the stored number and advancing the
// revision. Callers must hold the lock.
func (service *Service) replaceShot(projectID, sceneID string, shot Shot) Collection {
	current, ok := service.projects.Shot(ShotRef{ProjectID: projectID, SceneID: sceneID, ShotID: shot.ID})
	if !ok {
		return service.projects
	}

	shot.Number = current.Number
	shot.Revision = current.Revision + 1

	return service.entities.UpdateShot(service.projects, projectID, sceneID, shot)
}

/*
commit installs the next snapshot.

Description: Reconciles the selection, enforces the ordering and selection
invariants, advances the in-memory state and writes it through. A failed
write never rolls the state back; it surfaces as [Outcome.Warning]. Callers
must hold the lock.
*/
func (service *Service) commit(context context.Context, event string, next Collection, selection Selection, id string, attrs ...slog.Attr) (Outcome, error) {
	selection = selection.Reconcile(next)

	if err := checkInvariants(next, selection); err != nil {
		if service.strict || errors.Is(err, ErrMalformedSnapshot) {
			service.logger.Error("invariant_violation",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			return Outcome{}, apperr.Invariant(err)
		}

		service.logger.Warn("invariant_repaired",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		next = repair(next, service.entities)
		selection = selection.Reconcile(next)
	}

	service.projects = next
	service.selection = selection

	outcome := Outcome{State: service.snapshot(), ID: id}

	if err := service.persistence.Save(context, next, selection.CurrentProjectID); err != nil {
		service.logger.Error("snapshot_save_failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		outcome.Warning = SaveWarning
	}

	service.logger.LogAttrs(context, slog.LevelInfo, event, attrs...)

	return outcome, nil
}

// snapshot copies the state for callers. Callers must hold the lock.
func (service *Service) snapshot() State {
	selection := service.selection
	if selection.ActiveShot != nil {
		shot := selection.ActiveShot.clone()
		selection.ActiveShot = &shot
	}

	return State{Projects: service.projects.Clone(), Selection: selection}
}

// checkInvariants verifies structure, contiguous numbering and selection validity.
func checkInvariants(collection Collection, selection Selection) error {
	if len(collection) == 0 {
		return errors.New("collection is empty")
	}
	if err := collection.Validate(); err != nil {
		return err
	}
	for _, project := range collection {
		for _, scene := range project.Scenes {
			if err := CheckNumbering(scene.Shots); err != nil {
				return fmt.Errorf("scene %s: %w", scene.ID, err)
			}
		}
	}
	return selection.Validate(collection)
}

// repair re-derives numbering for every scene and refills an empty collection.
func repair(collection Collection, entities *EntityStore) Collection {
	if len(collection) == 0 {
		return Collection{entities.BlankProject()}
	}

	repaired := collection.Clone()
	for p := range repaired {
		for s := range repaired[p].Scenes {
			repaired[p].Scenes[s].Shots = Reindex(repaired[p].Scenes[s].Shots)
		}
	}
	return repaired
}

// validateShot checks the closed domains and numeric ranges of a shot payload.
func validateShot(shot Shot) error {
	validator := &validate.Validator{}
	validator.Required(FieldShotID, shot.ID)
	validator.Custom(FieldSize, !shot.Size.IsValid(), "Unknown shot size")
	validator.Custom(FieldAngle, !shot.Angle.IsValid(), "Unknown camera angle")
	validator.Custom(FieldMovement, !shot.Movement.IsValid(), "Unknown camera movement")
	validator.Custom(FieldFraming, !shot.Framing.IsValid(), "Unknown framing")
	validator.Custom(FieldFocus, !shot.Focus.IsValid(), "Unknown focus type")
	validator.Custom(FieldStatus, !shot.Status.IsValid(), "Unknown status")
	validator.Range(FieldFrameRate, shot.FrameRate, 1, 1000)
	validator.Custom(FieldTakes, pointer.Val(shot.Takes) < 0, "Must not be negative")
	return validator.Err()
}
