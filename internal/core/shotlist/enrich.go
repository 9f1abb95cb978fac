// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/taibuivan/cinescript/internal/platform/apperr"
	"github.com/taibuivan/cinescript/internal/platform/validate"
)

const (
	// GenericShotDescription is sent when a shot has neither description nor notes.
	GenericShotDescription = "A generic cinematic shot"

	// defaultImagePromptPrefix builds the prompt used when the caller supplies none.
	defaultImagePromptPrefix = "Cinematic shot, "
)

// # Collaborators

// Suggestion holds the raw fields proposed by an [Enricher]. Values are free
// text and are only applied after validation.
type Suggestion struct {
	Size     string `json:"size"`
	Angle    string `json:"angle"`
	Movement string `json:"movement"`
	Framing  string `json:"framing"`
	Focus    string `json:"focus"`
	Lens     string `json:"lens"`
	Camera   string `json:"camera"`
	Aperture string `json:"aperture"`
}

// Enricher proposes technical shot fields from natural language.
type Enricher interface {
	Suggest(context context.Context, description string) (Suggestion, error)
	RefinePrompt(context context.Context, description string) (string, error)
}

// ImageSynthesizer produces storyboard frames. Both methods return an image
// reference (data URI or URL).
type ImageSynthesizer interface {
	Generate(context context.Context, prompt string) (string, error)
	Edit(context context.Context, image, prompt string) (string, error)
}

/*
ApplyTo merges the suggestion into shot.

Description: Lens, camera and aperture are taken when non-empty. Composition
values are matched case-insensitively against their closed domains; values
outside the domain are dropped and the existing field is kept.

Parameters:
  - shot: Shot

Returns:
  - Shot: The merged shot
*/
func (suggestion Suggestion) ApplyTo(shot Shot) Shot {
	if size, ok := ParseShotSize(suggestion.Size); ok {
		shot.Size = size
	}
	if angle, ok := ParseCameraAngle(suggestion.Angle); ok {
		shot.Angle = angle
	}
	if movement, ok := ParseCameraMovement(suggestion.Movement); ok {
		shot.Movement = movement
	}
	if framing, ok := ParseShotFraming(suggestion.Framing); ok {
		shot.Framing = framing
	}
	if focus, ok := ParseFocusType(suggestion.Focus); ok {
		shot.Focus = focus
	}

	if lens := strings.TrimSpace(suggestion.Lens); lens != "" {
		shot.Lens = lens
	}
	if camera := strings.TrimSpace(suggestion.Camera); camera != "" {
		shot.Camera = camera
	}
	if aperture := strings.TrimSpace(suggestion.Aperture); aperture != "" {
		shot.Aperture = aperture
	}

	return shot
}

// EnrichmentInput picks the text sent to the enricher: description, then notes,
// then a generic placeholder.
func EnrichmentInput(shot Shot) string {
	if description := strings.TrimSpace(shot.Description); description != "" {
		return description
	}
	if notes := strings.TrimSpace(shot.Notes); notes != "" {
		return notes
	}
	return GenericShotDescription
}

// DefaultImagePrompt builds the prompt used when none is supplied.
func DefaultImagePrompt(shot Shot) string {
	return defaultImagePromptPrefix + shot.Description
}

// # Enrichment Operations

/*
SuggestShot asks the enricher for technical fields and applies them.

Description: The collaborator runs without holding the state lock. Its result
is applied only if the shot has not been updated in the meantime; otherwise
it is discarded as stale. A failure never modifies the shot.

Parameters:
  - context: context.Context
  - ref: ShotRef

Returns:
  - Outcome: The next state
  - error: NotFound, ServiceUnavailable, BadGateway or Conflict (stale)
*/
func (service *Service) SuggestShot(context context.Context, ref ShotRef) (Outcome, error) {
	if service.enricher == nil {
		return Outcome{}, apperr.ServiceUnavailable("Shot suggestions are not configured")
	}

	shot, err := service.lookupShot(ref)
	if err != nil {
		return Outcome{}, err
	}

	suggestion, err := service.enricher.Suggest(context, EnrichmentInput(shot))
	if err != nil {
		service.logger.Warn("shot_suggestion_failed",
			slog.String("shot_id", ref.ShotID),
			slog.String("error", err.Error()),
		)
		return Outcome{}, apperr.BadGateway("Shot suggestion failed", err)
	}

	return service.applyCollaboratorResult(context, "shot_enriched", ref, shot.Revision, suggestion.ApplyTo)
}

/*
GenerateImage renders a storyboard frame for the shot.

Description: An empty prompt becomes "Cinematic shot, {description}". When the
shot already has an image it is edited, otherwise a new one is generated. The
result replaces the image reference only if the shot is unchanged.

Parameters:
  - context: context.Context
  - ref: ShotRef
  - prompt: string (Optional)

Returns:
  - Outcome: The next state
  - error: NotFound, ServiceUnavailable, BadGateway or Conflict (stale)
*/
func (service *Service) GenerateImage(context context.Context, ref ShotRef, prompt string) (Outcome, error) {
	if service.images == nil {
		return Outcome{}, apperr.ServiceUnavailable("Image generation is not configured")
	}

	shot, err := service.lookupShot(ref)
	if err != nil {
		return Outcome{}, err
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = DefaultImagePrompt(shot)
	}

	var image string
	if shot.ImageURL != "" {
		image, err = service.images.Edit(context, shot.ImageURL, prompt)
	} else {
		image, err = service.images.Generate(context, prompt)
	}

	if err == nil && image == "" {
		err = errNoImage
	}
	if err != nil {
		service.logger.Warn("shot_image_failed",
			slog.String("shot_id", ref.ShotID),
			slog.String("error", err.Error()),
		)
		return Outcome{}, apperr.BadGateway("Image generation failed", err)
	}

	return service.applyCollaboratorResult(context, "shot_image_generated", ref, shot.Revision, func(current Shot) Shot {
		current.ImageURL = image
		return current
	})
}

// ClearImage removes the shot's image reference.
func (service *Service) ClearImage(context context.Context, ref ShotRef) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	next := service.projects
	if shot, ok := service.projects.Shot(ref); ok && shot.ImageURL != "" {
		shot.ImageURL = ""
		next = service.replaceShot(ref.ProjectID, ref.SceneID, shot)
	}

	return service.commit(context, "shot_image_cleared", next, service.selection, "",
		slog.String("shot_id", ref.ShotID),
	)
}

/*
RefinePrompt turns a shot description into an image prompt.

Parameters:
  - context: context.Context
  - description: string

Returns:
  - string: Refined prompt
  - error: Validation, ServiceUnavailable or BadGateway
*/
func (service *Service) RefinePrompt(context context.Context, description string) (string, error) {
	validator := &validate.Validator{}
	validator.Required(FieldDescription, description).MaxLen(FieldDescription, description, 5000)
	if err := validator.Err(); err != nil {
		return "", err
	}

	if service.enricher == nil {
		return "", apperr.ServiceUnavailable("Prompt refinement is not configured")
	}

	prompt, err := service.enricher.RefinePrompt(context, description)
	if err == nil && strings.TrimSpace(prompt) == "" {
		err = errNoPrompt
	}
	if err != nil {
		service.logger.Warn("prompt_refine_failed", slog.String("error", err.Error()))
		return "", apperr.BadGateway("Prompt refinement failed", err)
	}

	return strings.TrimSpace(prompt), nil
}

// # Internal Helpers

var (
	errNoImage  = errors.New("collaborator returned no image")
	errNoPrompt = errors.New("collaborator returned an empty prompt")
)

// lookupShot copies a shot out of the current state.
func (service *Service) lookupShot(ref ShotRef) (Shot, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	shot, ok := service.projects.Shot(ref)
	if !ok {
		return Shot{}, apperr.NotFound("Shot")
	}

	return shot.clone(), nil
}

// applyCollaboratorResult re-acquires the lock and applies merge to the live
// shot, provided its revision still matches the one the request started from.
// An open editor on the same shot is refreshed with the merged copy.
func (service *Service) applyCollaboratorResult(context context.Context, event string, ref ShotRef, observed int64, merge func(Shot) Shot) (Outcome, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	current, ok := service.projects.Shot(ref)
	if !ok {
		return Outcome{}, apperr.NotFound("Shot")
	}

	if current.Revision != observed {
		service.logger.Info("collaborator_result_discarded",
			slog.String("event", event),
			slog.String("shot_id", ref.ShotID),
			slog.Int64("observed_revision", observed),
			slog.Int64("current_revision", current.Revision),
		)
		return Outcome{}, apperr.Conflict("Shot changed while the request was running; result discarded")
	}

	next := service.replaceShot(ref.ProjectID, ref.SceneID, merge(current.clone()))

	selection := service.selection
	if selection.ActiveShot != nil && selection.ActiveShot.ID == ref.ShotID && selection.CurrentProjectID == ref.ProjectID {
		if updated, ok := next.Shot(ref); ok {
			refreshed := updated.clone()
			selection.ActiveShot = &refreshed
		}
	}

	return service.commit(context, event, next, selection, "",
		slog.String("shot_id", ref.ShotID),
	)
}
