package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation names recorded in edit history.
const (
	OpAdjust   = "adjust"
	OpCrop     = "crop"
	OpRemoveBG = "remove_bg"
)

// Edit is a single editing operation stored in MongoDB.
type Edit struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Username  string             `json:"username"   bson:"username"`
	Operation string             `json:"operation"  bson:"operation"`
	Source    string             `json:"source"     bson:"source"`
	Output    string             `json:"output"     bson:"output"`
	Params    map[string]any     `json:"params"     bson:"params"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// URLResponse is the JSON body returned by the editing endpoints.
type URLResponse struct {
	URL string `json:"url"`
}

// UploadResponse is the JSON body returned by /upload.
type UploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
