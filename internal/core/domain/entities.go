package domain

import "time"

// ImageStatus records whether a box's composite image was produced.
// A failed encode still yields a stored box with its annotation; the
// missing image is an explicit, documented state rather than a null.
type ImageStatus string

const (
	ImageStatusReady       ImageStatus = "ready"
	ImageStatusUnavailable ImageStatus = "unavailable"
)

// User is an account allowed to label.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dataset groups labeled boxes that share a tile source and class list.
type Dataset struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Classes     []string  `json:"classes"`
	DefaultZoom int       `json:"default_zoom"`
	CreatedAt   time.Time `json:"created_at"`
}

// Box is one labeled training sample: a geographic bounding box, the tile
// grid that was composited for it, and the resulting YOLO annotation.
type Box struct {
	ID          string               `json:"id"`
	DatasetID   string               `json:"dataset_id"`
	OwnerID     string               `json:"owner_id"`
	ClassID     int                  `json:"class_id"`
	Label       string               `json:"label,omitempty"`
	Bounds      GeoBounds            `json:"bounds"`
	Zoom        int                  `json:"zoom"`
	Grid        TileGrid             `json:"grid"`
	Annotation  NormalizedAnnotation `json:"annotation"`
	ImagePath   string               `json:"-"`
	ImageStatus ImageStatus          `json:"image_status"`
	ImageWidth  int                  `json:"image_width"`
	ImageHeight int                  `json:"image_height"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ExportJob tracks one dataset packaging run.
type ExportJob struct {
	ID          string     `json:"id"`
	DatasetID   string     `json:"dataset_id"`
	Status      string     `json:"status"` // pending, running, completed, failed
	ArchivePath string     `json:"archive_path,omitempty"`
	BoxCount    int        `json:"box_count"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BoxEvent is broadcast when a box is created or deleted.
type BoxEvent struct {
	Action     string    `json:"action"` // "created" | "deleted"
	DatasetID  string    `json:"dataset_id"`
	Box        *Box      `json:"box,omitempty"`
	BoxID      string    `json:"box_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExportProgress is broadcast while an export job runs.
type ExportProgress struct {
	JobID     string `json:"job_id"`
	DatasetID string `json:"dataset_id"`
	Stage     string `json:"stage"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}
