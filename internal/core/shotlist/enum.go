// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// # Scene Enums

// TimeOfDay tags a scene as interior or exterior.
type TimeOfDay string

const (
	TimeOfDayInterior TimeOfDay = "INT"
	TimeOfDayExterior TimeOfDay = "EXT"
)

// Lighting describes the lighting condition of a scene.
type Lighting string

const (
	LightingDay        Lighting = "DAY"
	LightingNight      Lighting = "NIGHT"
	LightingMagicHour  Lighting = "MAGIC HOUR"
	LightingArtificial Lighting = "ARTIFICIAL"
)

// # Shot Composition Enums

// ShotSize is how much of the subject the frame covers.
type ShotSize string

const (
	ShotSizeExtremeLong    ShotSize = "Extreme Long Shot"
	ShotSizeLong           ShotSize = "Long Shot"
	ShotSizeMediumLong     ShotSize = "Medium Long Shot"
	ShotSizeMedium         ShotSize = "Medium Shot"
	ShotSizeMediumCloseUp  ShotSize = "Medium Close-Up"
	ShotSizeCloseUp        ShotSize = "Close-Up"
	ShotSizeExtremeCloseUp ShotSize = "Extreme Close-Up"
)

// CameraAngle is the vertical relation between camera and subject.
type CameraAngle string

const (
	CameraAngleOverhead CameraAngle = "Bird's Eye / Overhead"
	CameraAngleHigh     CameraAngle = "High Angle"
	CameraAngleEyeLevel CameraAngle = "Eye Level"
	CameraAngleLow      CameraAngle = "Low Angle"
	CameraAngleWormsEye CameraAngle = "Worm's Eye"
	CameraAngleDutch    CameraAngle = "Dutch Angle"
)

// CameraMovement is how the camera travels during the shot.
type CameraMovement string

const (
	CameraMovementStatic    CameraMovement = "Static"
	CameraMovementPan       CameraMovement = "Pan"
	CameraMovementTilt      CameraMovement = "Tilt"
	CameraMovementDollyIn   CameraMovement = "Dolly In"
	CameraMovementDollyOut  CameraMovement = "Dolly Out"
	CameraMovementZoomIn    CameraMovement = "Zoom In"
	CameraMovementZoomOut   CameraMovement = "Zoom Out"
	CameraMovementTracking  CameraMovement = "Tracking"
	CameraMovementCrane     CameraMovement = "Crane"
	CameraMovementSteadicam CameraMovement = "Steadicam"
	CameraMovementHandheld  CameraMovement = "Handheld"
)

// ShotFraming is how subjects are arranged in the frame.
type ShotFraming string

const (
	ShotFramingSingle          ShotFraming = "Single / Standard"
	ShotFramingTwoShot         ShotFraming = "Two-Shot"
	ShotFramingOverTheShoulder ShotFraming = "Over the Shoulder"
	ShotFramingPointOfView     ShotFraming = "Point of View"
	ShotFramingInsert          ShotFraming = "Insert Shot"
)

// FocusType is the depth-of-field treatment.
type FocusType string

const (
	FocusStandard FocusType = "Standard"
	FocusDeep     FocusType = "Deep Focus"
	FocusRack     FocusType = "Rack Focus"
	FocusShallow  FocusType = "Shallow Focus"
)

// # Assistant Director Enums

// ShotStatus tracks a shot's progress on set. The zero value means "not tracked".
type ShotStatus string

const (
	ShotStatusNotStarted ShotStatus = "Not Started"
	ShotStatusInProgress ShotStatus = "In Progress"
	ShotStatusComplete   ShotStatus = "Complete"
	ShotStatusOnHold     ShotStatus = "On Hold"
)

// # Domains

var (
	timesOfDay = []TimeOfDay{TimeOfDayInterior, TimeOfDayExterior}
	lightings  = []Lighting{LightingDay, LightingNight, LightingMagicHour, LightingArtificial}
	shotSizes  = []ShotSize{
		ShotSizeExtremeLong, ShotSizeLong, ShotSizeMediumLong, ShotSizeMedium,
		ShotSizeMediumCloseUp, ShotSizeCloseUp, ShotSizeExtremeCloseUp,
	}
	cameraAngles = []CameraAngle{
		CameraAngleOverhead, CameraAngleHigh, CameraAngleEyeLevel,
		CameraAngleLow, CameraAngleWormsEye, CameraAngleDutch,
	}
	cameraMovements = []CameraMovement{
		CameraMovementStatic, CameraMovementPan, CameraMovementTilt, CameraMovementDollyIn,
		CameraMovementDollyOut, CameraMovementZoomIn, CameraMovementZoomOut, CameraMovementTracking,
		CameraMovementCrane, CameraMovementSteadicam, CameraMovementHandheld,
	}
	shotFramings = []ShotFraming{
		ShotFramingSingle, ShotFramingTwoShot, ShotFramingOverTheShoulder,
		ShotFramingPointOfView, ShotFramingInsert,
	}
	focusTypes   = []FocusType{FocusStandard, FocusDeep, FocusRack, FocusShallow}
	shotStatuses = []ShotStatus{ShotStatusNotStarted, ShotStatusInProgress, ShotStatusComplete, ShotStatusOnHold}
)

// Vocabulary lists every closed domain by field name, in display order.
type Vocabulary struct {
	TimeOfDay []TimeOfDay      `json:"time_of_day"`
	Lighting  []Lighting       `json:"lighting"`
	Size      []ShotSize       `json:"size"`
	Angle     []CameraAngle    `json:"angle"`
	Movement  []CameraMovement `json:"movement"`
	Framing   []ShotFraming    `json:"framing"`
	Focus     []FocusType      `json:"focus"`
	Status    []ShotStatus     `json:"status"`
}

// Vocabularies returns a copy of all enumeration domains.
func Vocabularies() Vocabulary {
	return Vocabulary{
		TimeOfDay: slices.Clone(timesOfDay),
		Lighting:  slices.Clone(lightings),
		Size:      slices.Clone(shotSizes),
		Angle:     slices.Clone(cameraAngles),
		Movement:  slices.Clone(cameraMovements),
		Framing:   slices.Clone(shotFramings),
		Focus:     slices.Clone(focusTypes),
		Status:    slices.Clone(shotStatuses),
	}
}

// # Validation

// IsValid reports whether t is a recognised [TimeOfDay].
func (t TimeOfDay) IsValid() bool { return slices.Contains(timesOfDay, t) }

// IsValid reports whether l is a recognised [Lighting].
func (l Lighting) IsValid() bool { return slices.Contains(lightings, l) }

// IsValid reports whether s is a recognised [ShotSize].
func (s ShotSize) IsValid() bool { return slices.Contains(shotSizes, s) }

// IsValid reports whether a is a recognised [CameraAngle].
func (a CameraAngle) IsValid() bool { return slices.Contains(cameraAngles, a) }

// IsValid reports whether m is a recognised [CameraMovement].
func (m CameraMovement) IsValid() bool { return slices.Contains(cameraMovements, m) }

// IsValid reports whether f is a recognised [ShotFraming].
func (f ShotFraming) IsValid() bool { return slices.Contains(shotFramings, f) }

// IsValid reports whether f is a recognised [FocusType].
func (f FocusType) IsValid() bool { return slices.Contains(focusTypes, f) }

// IsValid reports whether s is a recognised [ShotStatus] or the empty "not tracked" value.
func (s ShotStatus) IsValid() bool { return s == "" || slices.Contains(shotStatuses, s) }

// # Parsing

// parseEnum matches raw against the domain, ignoring case and surrounding spaces.
func parseEnum[T ~string](domain []T, raw string) (T, bool) {
	raw = strings.TrimSpace(raw)
	for _, value := range domain {
		if strings.EqualFold(string(value), raw) {
			return value, true
		}
	}
	var zero T
	return zero, false
}

// ParseShotSize maps a free-form label onto [ShotSize].
func ParseShotSize(raw string) (ShotSize, bool) { return parseEnum(shotSizes, raw) }

// ParseCameraAngle maps a free-form label onto [CameraAngle].
func ParseCameraAngle(raw string) (CameraAngle, bool) { return parseEnum(cameraAngles, raw) }

// ParseCameraMovement maps a free-form label onto [CameraMovement].
func ParseCameraMovement(raw string) (CameraMovement, bool) {
	return parseEnum(cameraMovements, raw)
}

// ParseShotFraming maps a free-form label onto [ShotFraming].
func ParseShotFraming(raw string) (ShotFraming, bool) { return parseEnum(shotFramings, raw) }

// ParseFocusType maps a free-form label onto [FocusType].
func ParseFocusType(raw string) (FocusType, bool) { return parseEnum(focusTypes, raw) }

// # JSON Boundary
//
// Unknown values are rejected at decode time so a raw string can never reach the model.

func unmarshalEnum[T ~string](data []byte, target *T, valid func(T) bool, field string) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("shotlist: %s must be a string: %w", field, err)
	}
	value := T(raw)
	if !valid(value) {
		return fmt.Errorf("shotlist: unknown %s %q", field, raw)
	}
	*target = value
	return nil
}

// UnmarshalJSON implements [json.Unmarshaler].
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, t, TimeOfDay.IsValid, "time_of_day")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (l *Lighting) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, l, Lighting.IsValid, "lighting")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *ShotSize) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ShotSize.IsValid, "size")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (a *CameraAngle) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, a, CameraAngle.IsValid, "angle")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (m *CameraMovement) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, m, CameraMovement.IsValid, "movement")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (f *ShotFraming) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, f, ShotFraming.IsValid, "framing")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (f *FocusType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, f, FocusType.IsValid, "focus")
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *ShotStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ShotStatus.IsValid, "status")
}
