// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package export renders a project's shot list as a comma-separated chart for
spreadsheets and call sheets.

Format:

  - One unquoted header row, then one row per shot across all scenes in display order.
  - Every data cell is wrapped in double quotes with embedded quotes doubled.
  - Rows are separated by a single line feed.
*/
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/pkg/pointer"
	"github.com/taibuivan/cinescript/pkg/slice"
	"github.com/taibuivan/cinescript/pkg/slug"
)

// ContentType is the media type of the rendered chart.
const ContentType = "text/csv; charset=utf-8"

// Header lists the chart columns in order.
var Header = []string{
	"Scene", "Shot #", "Size", "Angle", "Movement", "Framing", "Focus",
	"Description", "Lens", "Camera", "Aperture", "FPS", "Resolution", "Color Temp",
	"Timecode", "Takes", "Status", "AD Notes", "Production Notes",
}

// # Formatting

/*
ToDelimitedText renders the project as a comma-separated chart.

Parameters:
  - project: shotlist.Project

Returns:
  - []byte: Header plus one row per shot
*/
func ToDelimitedText(project shotlist.Project) []byte {
	return []byte(chart(project))
}

// Write streams the chart for project to writer.
func Write(writer io.Writer, project shotlist.Project) error {
	if _, err := io.WriteString(writer, chart(project)); err != nil {
		return fmt.Errorf("export: write chart: %w", err)
	}
	return nil
}

// Rows returns the unquoted cells of every shot, scene by scene.
func Rows(project shotlist.Project) [][]string {
	return slice.FlatMap(project.Scenes, func(scene shotlist.Scene) [][]string {
		label := scene.Number + " - " + scene.Title

		return slice.Map(scene.Shots, func(shot shotlist.Shot) []string {
			return []string{
				label,
				strconv.Itoa(shot.Number),
				string(shot.Size),
				string(shot.Angle),
				string(shot.Movement),
				string(shot.Framing),
				string(shot.Focus),
				shot.Description,
				shot.Lens,
				shot.Camera,
				shot.Aperture,
				strconv.Itoa(shot.FrameRate),
				shot.Resolution,
				shot.ColorTemp,
				shot.Timecode,
				takes(shot.Takes),
				string(shot.Status),
				shot.ADNotes,
				shot.Notes,
			}
		})
	})
}

// Filename names the export file: "{name}_shot_chart_{YYYY-MM-DD}.csv", where
// the name is reduced to [A-Za-z0-9] with underscores per [slug.Filename].
func Filename(project shotlist.Project, date time.Time) string {
	return fmt.Sprintf("%s_shot_chart_%s.csv", slug.Filename(project.Name), date.UTC().Format(time.DateOnly))
}

// # Formatter

// Formatter binds the chart renderer to a clock for file naming.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a [Formatter] stamped with the current date.
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// NewFormatterAt returns a [Formatter] using a fixed clock (useful for tests and the CLI).
func NewFormatterAt(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Export returns the file name and rendered chart for project.
func (formatter *Formatter) Export(project shotlist.Project) (string, []byte) {
	return Filename(project, formatter.now()), ToDelimitedText(project)
}

// ContentType reports the media type of [Formatter.Export] bodies.
func (formatter *Formatter) ContentType() string {
	return ContentType
}

// # Internal Helpers

func chart(project shotlist.Project) string {
	lines := append([]string{strings.Join(Header, ",")}, slice.Map(Rows(project), quoteRow)...)
	return strings.Join(lines, "\n")
}

func quoteRow(cells []string) string {
	return strings.Join(slice.Map(cells, quote), ",")
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func takes(count *int) string {
	if count == nil {
		return ""
	}
	return strconv.Itoa(pointer.Val(count))
}
