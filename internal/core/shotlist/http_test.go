// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/internal/platform/middleware"
	"github.com/taibuivan/cinescript/internal/services/export"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id"`
	Warning string          `json:"warning"`
	Code    string          `json:"code"`
	Meta    struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
}

func newRouter(t *testing.T, opts ...shotlist.ServiceOption) (*fixture, http.Handler) {
	t.Helper()

	f := newFixture(t, opts...)
	exporter := export.NewFormatterAt(func() time.Time { return fixedNow })

	return f, shotlist.NewHandler(f.service, exporter).Routes()
}

func serve(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	if strings.HasPrefix(recorder.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	}

	return recorder, decoded
}

func decodeState(t *testing.T, raw json.RawMessage) shotlist.State {
	t.Helper()

	var state shotlist.State
	require.NoError(t, json.Unmarshal(raw, &state))
	return state
}

func TestHandler_GetState(t *testing.T) {
	f, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodGet, "/state", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	state := decodeState(t, body.Data)
	require.Len(t, state.Projects, 1)
	assert.Equal(t, f.seedProject().ID, state.Selection.CurrentProjectID)
}

func TestHandler_CreateProject(t *testing.T) {
	_, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodPost, "/projects", "")

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotEmpty(t, body.ID)
	assert.Empty(t, body.Warning)
	assert.Equal(t, body.ID, decodeState(t, body.Data).Selection.CurrentProjectID)
}

func TestHandler_CreateScene_UnknownProjectIsOK(t *testing.T) {
	_, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodPost, "/projects/missing/scenes", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, body.ID)
}

func TestHandler_ListProjects(t *testing.T) {
	_, router := newRouter(t)
	serve(t, router, http.MethodPost, "/projects", "")
	serve(t, router, http.MethodPost, "/projects", "")

	recorder, body := serve(t, router, http.MethodGet, "/projects?page=1&limit=2", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Equal(t, 2, body.Meta.Limit)

	var summaries []shotlist.ProjectSummary
	require.NoError(t, json.Unmarshal(body.Data, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, shotlist.SeedProjectName, summaries[0].Name)
}

func TestHandler_ListProjects_HugePageIsEmpty(t *testing.T) {
	_, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodGet, "/projects?page=4611686018427387904&limit=4", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, body.Meta.Total)

	var summaries []shotlist.ProjectSummary
	require.NoError(t, json.Unmarshal(body.Data, &summaries))
	assert.Empty(t, summaries)
}

func TestHandler_GetProject_NotFound(t *testing.T) {
	_, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodGet, "/projects/missing", "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestHandler_UpdateProject(t *testing.T) {
	f, router := newRouter(t)
	target := "/projects/" + f.seedProject().ID

	recorder, body := serve(t, router, http.MethodPut, target, `{"name":"Renamed","director":"D","dop":"P"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Renamed", decodeState(t, body.Data).Projects[0].Name)

	recorder, body = serve(t, router, http.MethodPut, target, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	recorder, _ = serve(t, router, http.MethodPut, target, `{broken`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_UpdateShot_RejectsUnknownEnum(t *testing.T) {
	f, router := newRouter(t)
	ref := f.seedShotRef(0)
	target := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID

	recorder, _ := serve(t, router, http.MethodPut, target, `{"size":"Gigantic"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, f.state, f.service.State())
}

func TestHandler_UpdateShot_UsesPathID(t *testing.T) {
	f, router := newRouter(t)
	ref := f.seedShotRef(0)
	target := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID

	shot := f.seedScene().Shots[0]
	shot.ID = "ignored"
	shot.Notes = "Use a periscope lens"
	payload, err := json.Marshal(shot)
	require.NoError(t, err)

	recorder, body := serve(t, router, http.MethodPut, target, string(payload))
	require.Equal(t, http.StatusOK, recorder.Code)

	updated, ok := decodeState(t, body.Data).Projects.Shot(ref)
	require.True(t, ok)
	assert.Equal(t, "Use a periscope lens", updated.Notes)
}

func TestHandler_MoveShot(t *testing.T) {
	f, router := newRouter(t)
	ref := f.seedShotRef(1)
	target := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID + "/move"

	recorder, body := serve(t, router, http.MethodPost, target, `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	scene := sceneOf(t, decodeState(t, body.Data), ref.ProjectID, ref.SceneID)
	assert.Equal(t, ref.ShotID, scene.Shots[0].ID)

	recorder, _ = serve(t, router, http.MethodPost, target, `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_EditSession(t *testing.T) {
	f, router := newRouter(t)
	ref := f.seedShotRef(0)

	openBody, err := json.Marshal(ref)
	require.NoError(t, err)

	recorder, body := serve(t, router, http.MethodPost, "/selection/shot", string(openBody))
	require.Equal(t, http.StatusOK, recorder.Code)

	active := decodeState(t, body.Data).Selection.ActiveShot
	require.NotNil(t, active)
	active.Description = "Edited in the session"

	saveBody, err := json.Marshal(active)
	require.NoError(t, err)

	recorder, body = serve(t, router, http.MethodPut, "/selection/shot", string(saveBody))
	require.Equal(t, http.StatusOK, recorder.Code)

	state := decodeState(t, body.Data)
	assert.Nil(t, state.Selection.ActiveShot)
	shot, _ := state.Projects.Shot(ref)
	assert.Equal(t, "Edited in the session", shot.Description)

	recorder, _ = serve(t, router, http.MethodPut, "/selection/shot", string(saveBody))
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestHandler_SaveWarning(t *testing.T) {
	f, router := newRouter(t)
	f.store.failWrites.Store(true)

	recorder, body := serve(t, router, http.MethodPost, "/projects", "")

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, shotlist.SaveWarning, body.Warning)
}

func TestHandler_Export(t *testing.T) {
	f, router := newRouter(t)

	recorder, _ := serve(t, router, http.MethodGet, "/projects/"+f.seedProject().ID+"/export", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, export.ContentType, recorder.Header().Get("Content-Type"))
	assert.Equal(t,
		`attachment; filename="NEON_PROTOCOL_shot_chart_2026-03-14.csv"`,
		recorder.Header().Get("Content-Disposition"),
	)
	assert.True(t, strings.HasPrefix(recorder.Body.String(), "Scene,Shot #,"))
}

func TestHandler_Collaborators_NotConfigured(t *testing.T) {
	f, router := newRouter(t)
	ref := f.seedShotRef(0)
	base := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID

	recorder, _ := serve(t, router, http.MethodPost, base+"/suggest", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	recorder, _ = serve(t, router, http.MethodPost, base+"/image", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	recorder, _ = serve(t, router, http.MethodPost, "/prompts/refine", `{"description":"corridor"}`)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHandler_CollaboratorGuard(t *testing.T) {
	f := newFixture(t)
	limiter := middleware.NewRateLimiter("collaborators", 0.01, 1)
	router := shotlist.NewHandler(f.service, export.NewFormatter(), shotlist.WithCollaboratorGuard(limiter.Handler)).Routes()
	ref := f.seedShotRef(0)
	base := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID

	recorder, _ := serve(t, router, http.MethodPost, base+"/suggest", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code, "first call reaches the service")

	recorder, body := serve(t, router, http.MethodPost, base+"/image", "")
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", body.Code)

	recorder, _ = serve(t, router, http.MethodPost, "/prompts/refine", `{"description":"corridor"}`)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)

	// Editing routes sit outside the collaborator budget.
	recorder, _ = serve(t, router, http.MethodDelete, base+"/image", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	recorder, _ = serve(t, router, http.MethodPost, "/projects", "")
	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestHandler_RefinePrompt(t *testing.T) {
	_, router := newRouter(t, shotlist.WithEnricher(&fakeEnricher{prompt: "A long corridor, cinematic lighting"}))

	recorder, body := serve(t, router, http.MethodPost, "/prompts/refine", `{"description":"corridoio"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var refined struct {
		Prompt string `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &refined))
	assert.Equal(t, "A long corridor, cinematic lighting", refined.Prompt)
}

func TestHandler_GenerateImage(t *testing.T) {
	images := &fakeImages{result: "data:image/png;base64,AAA"}
	f, router := newRouter(t, shotlist.WithImageSynthesizer(images))
	ref := f.seedShotRef(0)
	target := "/projects/" + ref.ProjectID + "/scenes/" + ref.SceneID + "/shots/" + ref.ShotID + "/image"

	recorder, body := serve(t, router, http.MethodPost, target, `{"prompt":"noir"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	shot, _ := decodeState(t, body.Data).Projects.Shot(ref)
	assert.Equal(t, "data:image/png;base64,AAA", shot.ImageURL)
	require.Len(t, images.calls, 1)
	assert.Equal(t, "noir", images.calls[0].Prompt)

	recorder, body = serve(t, router, http.MethodDelete, target, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	shot, _ = decodeState(t, body.Data).Projects.Shot(ref)
	assert.Empty(t, shot.ImageURL)
}

func TestHandler_Vocabulary(t *testing.T) {
	_, router := newRouter(t)

	recorder, body := serve(t, router, http.MethodGet, "/vocabulary", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var vocabulary shotlist.Vocabulary
	require.NoError(t, json.Unmarshal(body.Data, &vocabulary))
	assert.Len(t, vocabulary.Movement, 11)
}
