package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/isdelr/studentily-be/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at"}

// SQLiteStore implements Store on top of a migrated SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAccount inserts a new user row.
func (s *SQLiteStore) CreateAccount(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()

	query, args, err := sq.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindAccountByEmail retrieves a user, including the password hash, by email.
func (s *SQLiteStore) FindAccountByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findAccount(ctx, "email", email)
}

// FindAccountByID retrieves a user, including the password hash, by ID.
func (s *SQLiteStore) FindAccountByID(ctx context.Context, id string) (models.User, error) {
	return s.findAccount(ctx, "id", id)
}

func (s *SQLiteStore) findAccount(ctx context.Context, column, value string) (models.User, error) {
	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{column: value}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to build query: %w", err)
	}

	var user models.User
	var createdAt int64
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	return user, nil
}

// DeleteAccount removes a user row. The user's resources are left for PurgeOrphans.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	query, args, err := sq.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return s.execAffecting(ctx, query, args, "delete user")
}

// InsertResource inserts a new resource row.
func (s *SQLiteStore) InsertResource(ctx context.Context, r *models.Resource) error {
	spec, err := specFor(r.Kind)
	if err != nil {
		return err
	}
	r.ID = uuid.New().String()

	values, err := resourceValues(spec, *r)
	if err != nil {
		return err
	}
	query, args, err := sq.Insert(spec.Collection).
		Columns(resourceColumns(spec)...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", spec.Kind, err)
	}
	return nil
}

// ListResources returns the owner's resources in insertion order.
func (s *SQLiteStore) ListResources(ctx context.Context, kind models.Kind, ownerID string) ([]models.Resource, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select(resourceColumns(spec)...).
		From(spec.Collection).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", spec.Collection, err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		r, err := scanResource(rows, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", spec.Kind, err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

// FindResource retrieves a single resource matching both id and owner.
func (s *SQLiteStore) FindResource(ctx context.Context, kind models.Kind, ownerID, id string) (models.Resource, error) {
	spec, err := specFor(kind)
	if err != nil {
		return models.Resource{}, err
	}

	query, args, err := sq.Select(resourceColumns(spec)...).
		From(spec.Collection).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return models.Resource{}, fmt.Errorf("failed to build query: %w", err)
	}

	r, err := scanResource(s.db.QueryRowContext(ctx, query, args...), spec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Resource{}, models.ErrNotFound
		}
		return models.Resource{}, fmt.Errorf("failed to get %s %s: %w", spec.Kind, id, err)
	}
	return r, nil
}

// SaveResource overwrites title, body, tags and flags of an owned resource.
func (s *SQLiteStore) SaveResource(ctx context.Context, r models.Resource) error {
	spec, err := specFor(r.Kind)
	if err != nil {
		return err
	}

	set := map[string]interface{}{
		"title":        r.Title,
		"text_content": r.Body,
		"is_pinned":    r.Pinned,
	}
	if spec.HasTags {
		tagsJSON, err := encodeTags(r.Tags)
		if err != nil {
			return err
		}
		set["tags_json"] = tagsJSON
	}
	if spec.HasCompleted {
		set["is_completed"] = r.Completed
	}

	query, args, err := sq.Update(spec.Collection).
		SetMap(set).
		Where(sq.Eq{"id": r.ID, "owner_id": r.OwnerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return s.execAffecting(ctx, query, args, "update "+string(spec.Kind))
}

// SetResourceFlag overwrites a single flag and returns the updated row.
func (s *SQLiteStore) SetResourceFlag(ctx context.Context, kind models.Kind, ownerID, id string, flag Flag, value bool) (models.Resource, error) {
	spec, err := specFor(kind)
	if err != nil {
		return models.Resource{}, err
	}
	column, err := flagColumn(spec, flag)
	if err != nil {
		return models.Resource{}, err
	}

	query, args, err := sq.Update(spec.Collection).
		Set(column, value).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Suffix("RETURNING " + strings.Join(resourceColumns(spec), ", ")).
		ToSql()
	if err != nil {
		return models.Resource{}, fmt.Errorf("failed to build query: %w", err)
	}

	r, err := scanResource(s.db.QueryRowContext(ctx, query, args...), spec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Resource{}, models.ErrNotFound
		}
		return models.Resource{}, fmt.Errorf("failed to set %s on %s %s: %w", flag, spec.Kind, id, err)
	}
	return r, nil
}

// DeleteResource removes an owned resource.
func (s *SQLiteStore) DeleteResource(ctx context.Context, kind models.Kind, ownerID, id string) error {
	spec, err := specFor(kind)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete(spec.Collection).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return s.execAffecting(ctx, query, args, "delete "+string(spec.Kind))
}

// PurgeOrphans deletes resources whose owner no longer has an account.
func (s *SQLiteStore) PurgeOrphans(ctx context.Context, kind models.Kind) (int64, error) {
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}

	query, args, err := sq.Delete(spec.Collection).
		Where("owner_id NOT IN (SELECT id FROM users)").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge orphaned %s: %w", spec.Collection, err)
	}
	return res.RowsAffected()
}

// execAffecting runs a write and maps "no rows touched" to models.ErrNotFound.
func (s *SQLiteStore) execAffecting(ctx context.Context, query string, args []interface{}, op string) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func specFor(kind models.Kind) (models.KindSpec, error) {
	spec, ok := models.SpecFor(kind)
	if !ok {
		return models.KindSpec{}, fmt.Errorf("unknown resource kind %q", kind)
	}
	return spec, nil
}

func flagColumn(spec models.KindSpec, flag Flag) (string, error) {
	switch {
	case flag == FlagPinned:
		return "is_pinned", nil
	case flag == FlagCompleted && spec.HasCompleted:
		return "is_completed", nil
	}
	return "", fmt.Errorf("%s has no %s flag", spec.Kind, flag)
}

func resourceColumns(spec models.KindSpec) []string {
	cols := []string{"id", "owner_id", "title", "text_content"}
	if spec.HasTags {
		cols = append(cols, "tags_json")
	}
	cols = append(cols, "is_pinned")
	if spec.HasCompleted {
		cols = append(cols, "is_completed")
	}
	return append(cols, "created_at")
}

func resourceValues(spec models.KindSpec, r models.Resource) ([]interface{}, error) {
	values := []interface{}{r.ID, r.OwnerID, r.Title, r.Body}
	if spec.HasTags {
		tagsJSON, err := encodeTags(r.Tags)
		if err != nil {
			return nil, err
		}
		values = append(values, tagsJSON)
	}
	values = append(values, r.Pinned)
	if spec.HasCompleted {
		values = append(values, r.Completed)
	}
	return append(values, r.CreatedAt.UnixMilli()), nil
}

// scanResource scans a row selected with resourceColumns(spec).
func scanResource(scanner interface{ Scan(...interface{}) error }, spec models.KindSpec) (models.Resource, error) {
	r := models.Resource{Kind: spec.Kind}
	var tagsJSON string
	var createdAt int64

	dest := []interface{}{&r.ID, &r.OwnerID, &r.Title, &r.Body}
	if spec.HasTags {
		dest = append(dest, &tagsJSON)
	}
	dest = append(dest, &r.Pinned)
	if spec.HasCompleted {
		dest = append(dest, &r.Completed)
	}
	dest = append(dest, &createdAt)

	if err := scanner.Scan(dest...); err != nil {
		return models.Resource{}, err
	}

	if spec.HasTags {
		r.Tags = []string{}
		if tagsJSON != "" {
			if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
				return models.Resource{}, fmt.Errorf("failed to decode tags: %w", err)
			}
		}
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	return r, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
