// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

// SeedProjectName names the project installed when nothing usable is persisted.
const SeedProjectName = "NEON PROTOCOL"

// SeedProject builds the demonstration project with freshly generated ids.
func (store *EntityStore) SeedProject() Project {
	project := Project{
		ID:          store.newID(),
		Name:        SeedProjectName,
		Description: "A high-stakes cyberpunk thriller set in New Tokyo, 2089.",
		Director:    "A. Kubrik",
		DOP:         "R. Deakins",
		CreatedAt:   store.now(),
	}

	wakeUp := store.BlankShot(1)
	wakeUp.Size = ShotSizeCloseUp
	wakeUp.Focus = FocusShallow
	wakeUp.Description = "Hero wakes up, eyes opening slowly. Blue flare."
	wakeUp.Notes = "Use macro lens."
	wakeUp.Lens = "100mm Macro"
	wakeUp.Camera = "Alexa Mini LF"
	wakeUp.Aperture = "T2.8"
	wakeUp.Resolution = "4K OG"
	wakeUp.ColorTemp = "5600K"

	room := store.BlankShot(2)
	room.Size = ShotSizeLong
	room.Angle = CameraAngleHigh
	room.Movement = CameraMovementDollyOut
	room.Focus = FocusDeep
	room.Description = "Wide shot of the cryo room. Steam rising."
	room.Notes = "Haze machine required."
	room.Lens = "24mm"
	room.Camera = "Alexa Mini LF"
	room.Aperture = "T4"
	room.Resolution = "4K OG"
	room.ColorTemp = "3200K"

	project.Scenes = []Scene{{
		ID:        store.newID(),
		Number:    "1A",
		Title:     "The Awakening",
		Location:  "Cryo Chamber",
		TimeOfDay: TimeOfDayInterior,
		Lighting:  LightingArtificial,
		Shots:     []Shot{wakeUp, room},
	}}

	return project
}
