// Package yolo formats annotations as YOLO label lines:
// "<class> <x_center> <y_center> <width> <height>" with all four geometry
// fields normalized to [0, 1].
package yolo

import (
	"fmt"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// Line renders one label line for a normalized annotation.
func Line(classID int, a domain.NormalizedAnnotation) string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", classID, a.XCenter, a.YCenter, a.Width, a.Height)
}
