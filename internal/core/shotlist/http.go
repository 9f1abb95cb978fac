// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/cinescript/internal/platform/request"
	"github.com/taibuivan/cinescript/internal/platform/respond"
	"github.com/taibuivan/cinescript/pkg/pagination"
)

// Exporter renders a project as a downloadable shot chart.
type Exporter interface {
	Export(project Project) (filename string, body []byte)
	ContentType() string
}

// # Handler Implementation

/*
Handler implements the HTTP layer for the production shot list.

Every mutating endpoint answers with the full state snapshot so clients can
render directly from the response.

# Routing Strategy

  - Hierarchy: /projects/{projectID}/scenes/{sceneID}/shots/{shotID}.
  - Selection: /projects/.../select and /selection/shot drive the editor.
  - Collaborators: /suggest, /image and /prompts/refine call the generative services.
*/
type Handler struct {
	service  *Service
	exporter Exporter

	// collaboratorGuard wraps the routes that call generative services.
	collaboratorGuard func(http.Handler) http.Handler
}

// HandlerOption customizes a [Handler].
type HandlerOption func(*Handler)

// WithCollaboratorGuard installs middleware (typically a tighter rate limit)
// in front of the suggest, image and prompt refinement routes.
func WithCollaboratorGuard(guard func(http.Handler) http.Handler) HandlerOption {
	return func(handler *Handler) {
		if guard != nil {
			handler.collaboratorGuard = guard
		}
	}
}

// NewHandler constructs a new shot list [Handler].
func NewHandler(service *Service, exporter Exporter, opts ...HandlerOption) *Handler {
	handler := &Handler{
		service:           service,
		exporter:          exporter,
		collaboratorGuard: func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler
}

// Routes returns a [chi.Router] configured with the shot list endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/state", handler.getState)
	router.Get("/vocabulary", handler.getVocabulary)

	// ## Projects
	router.Route("/projects", func(projects chi.Router) {
		projects.Get("/", handler.listProjects)
		projects.Post("/", handler.createProject)

		projects.Route("/{projectID}", func(project chi.Router) {
			project.Get("/", handler.getProject)
			project.Put("/", handler.updateProject)
			project.Delete("/", handler.deleteProject)
			project.Post("/select", handler.selectProject)
			project.Get("/export", handler.exportProject)

			// ## Scenes
			project.Post("/scenes", handler.createScene)
			project.Route("/scenes/{sceneID}", func(scene chi.Router) {
				scene.Put("/", handler.updateScene)
				scene.Delete("/", handler.deleteScene)
				scene.Post("/select", handler.selectScene)

				// ## Shots
				scene.Post("/shots", handler.addShot)
				scene.Route("/shots/{shotID}", func(shot chi.Router) {
					shot.Put("/", handler.updateShot)
					shot.Delete("/", handler.deleteShot)
					shot.Post("/move", handler.moveShot)
					shot.With(handler.collaboratorGuard).Post("/suggest", handler.suggestShot)
					shot.With(handler.collaboratorGuard).Post("/image", handler.generateImage)
					shot.Delete("/image", handler.clearImage)
				})
			})
		})
	})

	// ## Shot Editor
	router.Post("/selection/shot", handler.openShot)
	router.Put("/selection/shot", handler.saveShot)
	router.Delete("/selection/shot", handler.closeShot)

	// ## Prompt Refinement
	router.With(handler.collaboratorGuard).Post("/prompts/refine", handler.refinePrompt)

	return router
}

// # Request Bodies

type moveRequest struct {
	Direction Direction `json:"direction"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type refineRequest struct {
	Description string `json:"description"`
}

type refineResponse struct {
	Prompt string `json:"prompt"`
}

// # Read Endpoints

func (handler *Handler) getState(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.State())
}

func (handler *Handler) getVocabulary(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, Vocabularies())
}

func (handler *Handler) listProjects(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	summaries, total := handler.service.ListProjects(params)
	respond.Paginated(writer, summaries, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getProject(writer http.ResponseWriter, request *http.Request) {
	project, err := handler.service.GetProject(requestutil.Param(request, "projectID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, project)
}

func (handler *Handler) exportProject(writer http.ResponseWriter, request *http.Request) {
	project, err := handler.service.GetProject(requestutil.Param(request, "projectID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filename, body := handler.exporter.Export(project)
	respond.Attachment(writer, handler.exporter.ContentType(), filename, body)
}

// # Project Endpoints

func (handler *Handler) createProject(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.CreateProject(request.Context())
	handler.mutation(writer, request, http.StatusCreated, outcome, err)
}

func (handler *Handler) updateProject(writer http.ResponseWriter, request *http.Request) {
	var details ProjectDetails
	if err := requestutil.DecodeJSON(request, &details); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.UpdateProjectDetails(request.Context(), requestutil.Param(request, "projectID"), details)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) deleteProject(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.DeleteProject(request.Context(), requestutil.Param(request, "projectID"))
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) selectProject(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.SelectProject(request.Context(), requestutil.Param(request, "projectID"))
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

// # Scene Endpoints

func (handler *Handler) createScene(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.CreateScene(request.Context(), requestutil.Param(request, "projectID"))
	handler.mutation(writer, request, http.StatusCreated, outcome, err)
}

func (handler *Handler) updateScene(writer http.ResponseWriter, request *http.Request) {
	var details SceneDetails
	if err := requestutil.DecodeJSON(request, &details); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.UpdateScene(request.Context(),
		requestutil.Param(request, "projectID"),
		requestutil.Param(request, "sceneID"),
		details,
	)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) deleteScene(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.DeleteScene(request.Context(),
		requestutil.Param(request, "projectID"),
		requestutil.Param(request, "sceneID"),
	)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) selectScene(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.SelectScene(request.Context(),
		requestutil.Param(request, "projectID"),
		requestutil.Param(request, "sceneID"),
	)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

// # Shot Endpoints

func (handler *Handler) addShot(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.AddShot(request.Context(),
		requestutil.Param(request, "projectID"),
		requestutil.Param(request, "sceneID"),
	)
	handler.mutation(writer, request, http.StatusCreated, outcome, err)
}

func (handler *Handler) updateShot(writer http.ResponseWriter, request *http.Request) {
	var shot Shot
	if err := requestutil.DecodeJSON(request, &shot); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The path is authoritative for the shot id
	shot.ID = requestutil.Param(request, "shotID")

	outcome, err := handler.service.UpdateShot(request.Context(),
		requestutil.Param(request, "projectID"),
		requestutil.Param(request, "sceneID"),
		shot,
	)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) deleteShot(writer http.ResponseWriter, request *http.Request) {
	ref := shotRef(request)

	outcome, err := handler.service.DeleteShot(request.Context(), ref.ProjectID, ref.SceneID, ref.ShotID)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) moveShot(writer http.ResponseWriter, request *http.Request) {
	var body moveRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ref := shotRef(request)

	outcome, err := handler.service.MoveShot(request.Context(), ref.ProjectID, ref.SceneID, ref.ShotID, body.Direction)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

// # Shot Editor Endpoints

func (handler *Handler) openShot(writer http.ResponseWriter, request *http.Request) {
	var ref ShotRef
	if err := requestutil.DecodeJSON(request, &ref); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.OpenShot(request.Context(), ref)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) saveShot(writer http.ResponseWriter, request *http.Request) {
	var shot Shot
	if err := requestutil.DecodeJSON(request, &shot); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.SaveActiveShot(request.Context(), shot)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) closeShot(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.CloseShot(request.Context())
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

// # Collaborator Endpoints

func (handler *Handler) suggestShot(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.SuggestShot(request.Context(), shotRef(request))
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) generateImage(writer http.ResponseWriter, request *http.Request) {
	var body imageRequest
	if err := requestutil.DecodeOptionalJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.GenerateImage(request.Context(), shotRef(request), body.Prompt)
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) clearImage(writer http.ResponseWriter, request *http.Request) {
	outcome, err := handler.service.ClearImage(request.Context(), shotRef(request))
	handler.mutation(writer, request, http.StatusOK, outcome, err)
}

func (handler *Handler) refinePrompt(writer http.ResponseWriter, request *http.Request) {
	var body refineRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	prompt, err := handler.service.RefinePrompt(request.Context(), body.Description)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, refineResponse{Prompt: prompt})
}

// # Internal Helpers

// mutation writes an [Outcome] or the error that prevented it.
func (handler *Handler) mutation(writer http.ResponseWriter, request *http.Request, status int, outcome Outcome, err error) {
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// A no-op create (unknown parent) produced nothing new
	if status == http.StatusCreated && outcome.ID == "" {
		status = http.StatusOK
	}

	respond.Mutation(writer, status, outcome.State, outcome.ID, outcome.Warning)
}

func shotRef(request *http.Request) ShotRef {
	return ShotRef{
		ProjectID: requestutil.Param(request, "projectID"),
		SceneID:   requestutil.Param(request, "sceneID"),
		ShotID:    requestutil.Param(request, "shotID"),
	}
}
