package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmylchreest/itscooked/internal/store"
	"github.com/jmylchreest/itscooked/pkg/importer"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

// Importer runs the import pipeline for a validated request.
type Importer interface {
	Import(ctx context.Context, req platform.ImportRequest) importer.ImportResult
}

var _ Importer = (*importer.Importer)(nil)

// RecipeStore persists recipes per user.
type RecipeStore interface {
	Create(ctx context.Context, r *store.Recipe) error
	Get(ctx context.Context, userID, id string) (*store.Recipe, error)
	FindBySourceURL(ctx context.Context, userID, url string) (*store.Recipe, error)
	List(ctx context.Context, userID string, opts store.ListOptions) ([]store.Recipe, error)
	Update(ctx context.Context, userID, id string, u store.Update) (*store.Recipe, error)
	Delete(ctx context.Context, userID, id string) error
	Ping(ctx context.Context) error
}

var _ RecipeStore = (*store.Store)(nil)

// Handler serves the recipe API.
type Handler struct {
	store         RecipeStore
	importer      Importer
	importTimeout time.Duration
}

// DefaultImportTimeout bounds one import when none is configured.
const DefaultImportTimeout = 45 * time.Second

// NewHandler creates a Handler. A zero importTimeout uses
// DefaultImportTimeout.
func NewHandler(s RecipeStore, imp Importer, importTimeout time.Duration) *Handler {
	if importTimeout <= 0 {
		importTimeout = DefaultImportTimeout
	}
	return &Handler{
		store:         s,
		importer:      imp,
		importTimeout: importTimeout,
	}
}

type createBody struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// updateBody lists are either a newline-separated string or an array of
// strings. Absent or null fields are left alone.
type updateBody struct {
	Title        *string         `json:"title"`
	Ingredients  json.RawMessage `json:"ingredients"`
	Instructions json.RawMessage `json:"instructions"`
}

type extraction struct {
	Status   importer.Status `json:"status"`
	Warnings []string        `json:"warnings"`
}

type recipeResponse struct {
	Recipe     *store.Recipe `json:"recipe"`
	Extraction *extraction   `json:"extraction,omitempty"`
}

type groceryResponse struct {
	RecipeID string   `json:"recipeId"`
	Title    string   `json:"title,omitempty"`
	Items    []string `json:"items"`
	Text     string   `json:"text"`
}
