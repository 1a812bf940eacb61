package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// itemRow mirrors one row of the items table.
type itemRow struct {
	ID             int64          `db:"id"`
	Kind           string         `db:"kind"`
	Title          string         `db:"title"`
	Director       string         `db:"director"`
	Genres         string         `db:"genres"`
	ReleaseYear    int            `db:"release_year"`
	Duration       int            `db:"duration"`
	AgeRating      int            `db:"age_rating"`
	Favourite      bool           `db:"favourite"`
	IsAnimated     bool           `db:"is_animated"`
	Watched        bool           `db:"watched"`
	Topic          sql.NullString `db:"topic"`
	Documentarian  sql.NullString `db:"documentarian"`
	MoralLesson    sql.NullString `db:"moral_lesson"`
	ParentalAppeal sql.NullInt64  `db:"parental_appeal"`
}

// dehydrate converts an item into a row. Variant columns are NULL unless
// the item kind carries them.
func dehydrate(item *types.Item) (itemRow, error) {
	genres, err := encodeGenres(item.Genres())
	if err != nil {
		return itemRow{}, fmt.Errorf("encoding genres: %w", err)
	}
	row := itemRow{
		ID:          item.ID,
		Kind:        string(item.Kind),
		Title:       item.Title,
		Director:    item.Director,
		Genres:      genres,
		ReleaseYear: item.ReleaseYear,
		Duration:    item.Duration,
		AgeRating:   item.AgeRating,
		Favourite:   item.Favourite,
		IsAnimated:  item.IsAnimated,
		Watched:     item.Watched,
	}

	switch item.Kind {
	case types.KindMovie:
	case types.KindDocumentary:
		if d := item.Documentary; d != nil {
			row.Topic = sql.NullString{String: d.Topic, Valid: true}
			row.Documentarian = sql.NullString{String: d.Documentarian, Valid: true}
		}
	case types.KindKidMovie:
		if k := item.KidMovie; k != nil {
			row.MoralLesson = sql.NullString{String: k.MoralLesson, Valid: true}
			row.ParentalAppeal = sql.NullInt64{Int64: int64(k.ParentalAppeal), Valid: true}
		}
	default:
		return itemRow{}, fmt.Errorf("unknown kind %q", item.Kind)
	}
	return row, nil
}

// hydrate converts a row into an item.
func hydrate(row itemRow) (*types.Item, error) {
	item := &types.Item{
		ID:   row.ID,
		Kind: types.Kind(row.Kind),
		Common: types.Common{
			Title:       row.Title,
			Director:    row.Director,
			ReleaseYear: row.ReleaseYear,
			Duration:    row.Duration,
			AgeRating:   row.AgeRating,
			Favourite:   row.Favourite,
			IsAnimated:  row.IsAnimated,
			Watched:     row.Watched,
		},
	}

	switch item.Kind {
	case types.KindMovie:
	case types.KindDocumentary:
		item.Documentary = &types.Documentary{
			Topic:         row.Topic.String,
			Documentarian: row.Documentarian.String,
		}
	case types.KindKidMovie:
		item.KidMovie = &types.KidMovie{
			MoralLesson:    row.MoralLesson.String,
			ParentalAppeal: int(row.ParentalAppeal.Int64),
		}
	default:
		return nil, fmt.Errorf("item %d has unknown kind %q", row.ID, row.Kind)
	}

	if err := item.SetGenres(decodeGenres(row.Genres)); err != nil {
		return nil, fmt.Errorf("item %d: %w", row.ID, err)
	}
	return item, nil
}

// Insert persists a new item and sets item.ID to the assigned ID.
func (b *Backend) Insert(ctx context.Context, item *types.Item) (int64, error) {
	db, err := b.handle()
	if err != nil {
		return 0, err
	}

	row, err := dehydrate(item)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO items (kind, title, director, genres, release_year, duration, age_rating,
        favourite, is_animated, watched, topic, documentarian, moral_lesson, parental_appeal)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`)

	var id int64
	err = tx.QueryRowxContext(ctx, query,
		row.Kind, row.Title, row.Director, row.Genres, row.ReleaseYear, row.Duration, row.AgeRating,
		row.Favourite, row.IsAnimated, row.Watched,
		row.Topic, row.Documentarian, row.MoralLesson, row.ParentalAppeal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insert: %w", err)
	}

	item.ID = id
	return id, nil
}

// Get returns the item with the given ID.
func (b *Backend) Get(ctx context.Context, id int64) (*types.Item, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	return getItem(ctx, db, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// getItem loads one item through q, which is either the database or an
// open transaction.
func getItem(ctx context.Context, q queryer, id int64) (*types.Item, error) {
	var row itemRow
	query := q.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &types.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	return hydrate(row)
}

// Update applies mutate to the stored item and writes the result back in
// one transaction.
func (b *Backend) Update(ctx context.Context, id int64, mutate func(*types.Item) error) (*types.Item, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.Kind = current.Kind
	if next.Documentary == nil {
		next.Documentary = current.Documentary
	}
	if next.KidMovie == nil {
		next.KidMovie = current.KidMovie
	}

	row, err := dehydrate(next)
	if err != nil {
		return nil, err
	}

	query := tx.Rebind(`UPDATE items SET title = ?, director = ?, genres = ?, release_year = ?, duration = ?,
        age_rating = ?, favourite = ?, is_animated = ?, watched = ?,
        topic = ?, documentarian = ?, moral_lesson = ?, parental_appeal = ?
        WHERE id = ?`)
	_, err = tx.ExecContext(ctx, query,
		row.Title, row.Director, row.Genres, row.ReleaseYear, row.Duration,
		row.AgeRating, row.Favourite, row.IsAnimated, row.Watched,
		row.Topic, row.Documentarian, row.MoralLesson, row.ParentalAppeal,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	return next, nil
}

// Delete removes the item with the given ID.
func (b *Backend) Delete(ctx context.Context, id int64) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	if n == 0 {
		return &types.NotFoundError{ID: id}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// Fetch returns the items matching filter in ascending ID order.
func (b *Backend) Fetch(ctx context.Context, filter types.Filter) ([]*types.Item, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	where, args := b.dialect.where(filter)
	query := `SELECT ` + itemColumns + ` FROM items`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id ASC"

	var rows []itemRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}

	items := make([]*types.Item, 0, len(rows))
	for _, row := range rows {
		item, err := hydrate(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Clear removes every item and returns how many were removed.
func (b *Backend) Clear(ctx context.Context) (int64, error) {
	db, err := b.handle()
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("clearing items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing clear: %w", err)
	}
	return n, nil
}

// CountByYear returns the number of items per release year, ascending.
func (b *Backend) CountByYear(ctx context.Context) ([]types.YearCount, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ReleaseYear int `db:"release_year"`
		Count       int `db:"n"`
	}
	query := `SELECT release_year, COUNT(*) AS n FROM items GROUP BY release_year ORDER BY release_year ASC`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("counting items by year: %w", err)
	}

	counts := make([]types.YearCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, types.YearCount{ReleaseYear: r.ReleaseYear, Count: r.Count})
	}
	return counts, nil
}
