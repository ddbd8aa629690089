package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/itscooked/pkg/platform"
)

// Recipe is a saved recipe. Empty strings and empty lists are absent.
type Recipe struct {
	ID              string                  `json:"id" yaml:"id"`
	UserID          string                  `json:"-" yaml:"-"`
	Title           string                  `json:"title,omitempty" yaml:"title,omitempty"`
	SourceURL       string                  `json:"sourceUrl" yaml:"source_url"`
	SourcePlatform  platform.SourcePlatform `json:"sourcePlatform" yaml:"source_platform"`
	Ingredients     []string                `json:"ingredients" yaml:"ingredients"`
	Instructions    []string                `json:"instructions" yaml:"instructions"`
	OriginalCreator string                  `json:"originalCreator,omitempty" yaml:"original_creator,omitempty"`
	ThumbnailURL    string                  `json:"thumbnailUrl,omitempty" yaml:"thumbnail_url,omitempty"`
	CreatedAt       time.Time               `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time               `json:"updatedAt" yaml:"updated_at"`
}

// Update holds the fields to change. Nil fields are left alone; a non-nil
// empty list clears the column.
type Update struct {
	Title           *string
	Ingredients     *[]string
	Instructions    *[]string
	OriginalCreator *string
	ThumbnailURL    *string
}

const recipeColumns = `id, user_id, title, source_url, source_platform, ingredients, instructions,
	original_creator, thumbnail_url, created_at, updated_at`

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// Create inserts r, assigning its ID and timestamps. Saving the same source
// URL twice for a user returns ErrConflict.
func (s *Store) Create(ctx context.Context, r *Recipe) error {
	if r.UserID == "" || r.SourceURL == "" {
		return errors.New("store: user id and source url are required")
	}

	ingredients, err := encodeList(r.Ingredients)
	if err != nil {
		return err
	}
	instructions, err := encodeList(r.Instructions)
	if err != nil {
		return err
	}

	ts := now()
	id := uuid.NewString()
	if r.SourcePlatform == "" {
		r.SourcePlatform = platform.Unknown
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recipes (`+recipeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, r.UserID, nullString(r.Title), r.SourceURL, string(r.SourcePlatform),
		ingredients, instructions, nullString(r.OriginalCreator), nullString(r.ThumbnailURL),
		formatTime(ts), formatTime(ts))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	r.ID = id
	r.CreatedAt = ts
	r.UpdatedAt = ts
	r.Ingredients = nonNil(r.Ingredients)
	r.Instructions = nonNil(r.Instructions)
	return nil
}

// Get returns the user's recipe with the given id.
func (s *Store) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? AND id = ?
	`, userID, id)
	return scanRecipe(row)
}

// FindBySourceURL returns the user's recipe saved from url.
func (s *Store) FindBySourceURL(ctx context.Context, userID, url string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? AND source_url = ?
	`, userID, url)
	return scanRecipe(row)
}

// All returns every recipe saved by the user, newest first.
func (s *Store) All(ctx context.Context, userID string) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+` FROM recipes WHERE user_id = ?
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recipes := []Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

// Update applies u to the user's recipe and returns the result.
func (s *Store) Update(ctx context.Context, userID, id string, u Update) (*Recipe, error) {
	var sets []string
	var args []any

	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, nullString(*u.Title))
	}
	if u.Ingredients != nil {
		v, err := encodeList(*u.Ingredients)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "ingredients = ?")
		args = append(args, v)
	}
	if u.Instructions != nil {
		v, err := encodeList(*u.Instructions)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "instructions = ?")
		args = append(args, v)
	}
	if u.OriginalCreator != nil {
		sets = append(sets, "original_creator = ?")
		args = append(args, nullString(*u.OriginalCreator))
	}
	if u.ThumbnailURL != nil {
		sets = append(sets, "thumbnail_url = ?")
		args = append(args, nullString(*u.ThumbnailURL))
	}

	if len(sets) == 0 {
		return s.Get(ctx, userID, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(now()), userID, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND id = ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes the user's recipe.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (*Recipe, error) {
	var (
		r                         Recipe
		platformName              string
		title, creator, thumbnail sql.NullString
		ingredients, instructions sql.NullString
		createdAt, updatedAt      string
	)
	err := row.Scan(&r.ID, &r.UserID, &title, &r.SourceURL, &platformName,
		&ingredients, &instructions, &creator, &thumbnail, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	r.Title = title.String
	r.SourcePlatform = platform.SourcePlatform(platformName)
	r.OriginalCreator = creator.String
	r.ThumbnailURL = thumbnail.String

	if r.Ingredients, err = decodeList(ingredients); err != nil {
		return nil, err
	}
	if r.Instructions, err = decodeList(instructions); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// encodeList stores a list as a JSON array, or NULL when empty.
func encodeList(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode list: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeList(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(v.String), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return nonNil(items), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
