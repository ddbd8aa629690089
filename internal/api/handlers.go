package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/itscooked/internal/grocery"
	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/internal/store"
	"github.com/jmylchreest/itscooked/internal/version"
	"github.com/jmylchreest/itscooked/pkg/importer"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

// CreateRecipe validates a submitted link, imports it and saves the draft.
func (h *Handler) CreateRecipe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)

	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, badRequest("Request body must be a JSON object."))
		return
	}

	req, err := platform.ParseImportRequest(body.URL, body.Title)
	if err != nil {
		abortWithError(c, asValidationError(err))
		return
	}

	if existing, err := h.store.FindBySourceURL(ctx, userID, req.URL); err == nil {
		abortWithError(c, duplicate(existing))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		abortWithError(c, err)
		return
	}

	result, status := h.runImport(ctx, req)

	recipe := &store.Recipe{
		UserID:          userID,
		Title:           result.Title,
		SourceURL:       req.URL,
		SourcePlatform:  req.Platform,
		Ingredients:     result.Ingredients,
		Instructions:    result.Instructions,
		OriginalCreator: result.OriginalCreator,
		ThumbnailURL:    result.ThumbnailURL,
	}
	if err := h.store.Create(ctx, recipe); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Saved concurrently while the import ran.
			if existing, ferr := h.store.FindBySourceURL(ctx, userID, req.URL); ferr == nil {
				abortWithError(c, duplicate(existing))
				return
			}
		}
		abortWithError(c, err)
		return
	}

	logger.InfoContext(ctx, "recipe imported",
		"recipe_id", recipe.ID,
		"platform", recipe.SourcePlatform,
		"status", status)

	c.JSON(http.StatusCreated, recipeResponse{
		Recipe:     recipe,
		Extraction: &extraction{Status: status, Warnings: result.Warnings},
	})
}

// ListRecipes returns the user's library, optionally searched, filtered by
// platform and sorted.
func (h *Handler) ListRecipes(c *gin.Context) {
	opts := store.ListOptions{Query: c.Query("q")}

	switch p := platform.SourcePlatform(strings.ToUpper(strings.TrimSpace(c.Query("platform")))); {
	case p == "" || p == "ALL":
	case p.Supported():
		opts.Platform = p
	default:
		abortWithError(c, validationError("Platform must be ALL, INSTAGRAM or TIKTOK.", gin.H{"field": "platform"}))
		return
	}

	sort, err := store.ParseSort(c.Query("sort"))
	if err != nil {
		abortWithError(c, validationError("Sort must be newest, oldest or title.", gin.H{"field": "sort"}))
		return
	}
	opts.Sort = sort

	recipes, err := h.store.List(c.Request.Context(), c.GetString(userIDKey), opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// GetRecipe returns one of the user's recipes.
func (h *Handler) GetRecipe(c *gin.Context) {
	recipe, err := h.store.Get(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		abortWithError(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, recipeResponse{Recipe: recipe})
}

// UpdateRecipe edits the title and lists of a recipe. Empty lists clear the
// stored value.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	var body updateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, badRequest("Request body must be valid JSON."))
		return
	}

	var u store.Update
	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if utf8.RuneCountInString(title) > platform.MaxTitleLength {
			abortWithError(c, validationError(
				fmt.Sprintf("Title must be %d characters or fewer.", platform.MaxTitleLength),
				gin.H{"field": "title"}))
			return
		}
		u.Title = &title
	}

	var err error
	if u.Ingredients, err = parseStringList("ingredients", body.Ingredients); err != nil {
		abortWithError(c, err)
		return
	}
	if u.Instructions, err = parseStringList("instructions", body.Instructions); err != nil {
		abortWithError(c, err)
		return
	}

	recipe, err := h.store.Update(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), u)
	if err != nil {
		abortWithError(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, recipeResponse{Recipe: recipe})
}

// DeleteRecipe removes one of the user's recipes.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.GetString(userIDKey), c.Param("id")); err != nil {
		abortWithError(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ReimportRecipe runs the pipeline again against the saved link. Lists are
// replaced only when something was extracted, and the saved title is kept.
func (h *Handler) ReimportRecipe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)

	recipe, err := h.store.Get(ctx, userID, c.Param("id"))
	if err != nil {
		abortWithError(c, storeError(err))
		return
	}

	result, status := h.runImport(ctx, platform.ImportRequest{
		URL:           recipe.SourceURL,
		Platform:      recipe.SourcePlatform,
		FallbackTitle: recipe.Title,
	})

	var u store.Update
	if result.Title != "" {
		u.Title = &result.Title
	}
	if result.HasExtraction() {
		u.Ingredients = &result.Ingredients
		u.Instructions = &result.Instructions
	}
	if result.OriginalCreator != "" {
		u.OriginalCreator = &result.OriginalCreator
	}
	if result.ThumbnailURL != "" {
		u.ThumbnailURL = &result.ThumbnailURL
	}

	updated, err := h.store.Update(ctx, userID, recipe.ID, u)
	if err != nil {
		abortWithError(c, storeError(err))
		return
	}

	logger.InfoContext(ctx, "recipe reimported",
		"recipe_id", updated.ID,
		"status", status)

	c.JSON(http.StatusOK, recipeResponse{
		Recipe:     updated,
		Extraction: &extraction{Status: status, Warnings: result.Warnings},
	})
}

// GetGroceryList returns the recipe's ingredients as a checklist.
func (h *Handler) GetGroceryList(c *gin.Context) {
	recipe, err := h.store.Get(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		abortWithError(c, storeError(err))
		return
	}

	list := grocery.Build(recipe.ID, recipe.Title, recipe.Ingredients)
	c.JSON(http.StatusOK, groceryResponse{
		RecipeID: list.RecipeID,
		Title:    list.Title,
		Items:    list.Items,
		Text:     list.Text(),
	})
}

// HealthCheck reports whether the database is reachable.
func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.Ping(c.Request.Context()); err != nil {
		logger.ErrorContext(c.Request.Context(), "health check failed", "error", err)
		health["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

// Version returns build information.
func (h *Handler) Version(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, version.Get())
}

func (h *Handler) runImport(ctx context.Context, req platform.ImportRequest) (importer.ImportResult, importer.Status) {
	ctx, cancel := context.WithTimeout(ctx, h.importTimeout)
	defer cancel()

	result := h.importer.Import(ctx, req)
	return result, importer.DeriveStatus(result)
}

func asValidationError(err error) error {
	var verr *platform.ValidationError
	if errors.As(err, &verr) {
		return validationError(verr.Message, gin.H{"field": verr.Field})
	}
	return err
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound()
	}
	return err
}

func duplicate(existing *store.Recipe) *apiError {
	ref := &recipeRef{ID: existing.ID}
	if existing.Title != "" {
		ref.Title = &existing.Title
	}
	return conflict("That link is already in your library.", ref)
}

// parseStringList reads a list field given as a newline-separated string or
// an array. Non-string array items are skipped; items are trimmed and blanks
// dropped. A nil result means the field was absent.
func parseStringList(field string, raw json.RawMessage) (*[]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var candidates []any
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		for _, line := range strings.Split(text, "\n") {
			candidates = append(candidates, line)
		}
	} else if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, validationError(
			fmt.Sprintf("%s must be text or a list of strings.", titleCase(field)),
			gin.H{"field": field})
	}

	items := make([]string, 0, len(candidates))
	for _, v := range candidates {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return &items, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
