package sqlite

// Schema DDL. Every kind lives in one items table; variant columns are NULL
// for kinds that do not carry them and genres holds a JSON array.
const (
	createItemsSQLite = `CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    director TEXT NOT NULL,
    genres TEXT NOT NULL DEFAULT '[]',
    release_year INTEGER NOT NULL,
    duration INTEGER NOT NULL,
    age_rating INTEGER NOT NULL,
    favourite BOOLEAN NOT NULL DEFAULT 0,
    is_animated BOOLEAN NOT NULL DEFAULT 0,
    watched BOOLEAN NOT NULL DEFAULT 0,
    topic TEXT,
    documentarian TEXT,
    moral_lesson TEXT,
    parental_appeal INTEGER
);`

	createItemsPostgres = `CREATE TABLE IF NOT EXISTS items (
    id BIGSERIAL PRIMARY KEY,
    kind TEXT NOT NULL,
    title TEXT NOT NULL,
    director TEXT NOT NULL,
    genres TEXT NOT NULL DEFAULT '[]',
    release_year BIGINT NOT NULL,
    duration BIGINT NOT NULL,
    age_rating BIGINT NOT NULL,
    favourite BOOLEAN NOT NULL DEFAULT FALSE,
    is_animated BOOLEAN NOT NULL DEFAULT FALSE,
    watched BOOLEAN NOT NULL DEFAULT FALSE,
    topic TEXT,
    documentarian TEXT,
    moral_lesson TEXT,
    parental_appeal BIGINT
);`

	// createGenreArrayPostgres defines genreArrayFunc, which returns the
	// genres column as a JSON array, or an empty array when the text is not
	// valid JSON or holds something else.
	createGenreArrayPostgres = `CREATE OR REPLACE FUNCTION ` + genreArrayFunc + `(raw TEXT) RETURNS json AS $$
BEGIN
    IF json_typeof(raw::json) = 'array' THEN
        RETURN raw::json;
    END IF;
    RETURN '[]'::json;
EXCEPTION WHEN invalid_text_representation THEN
    RETURN '[]'::json;
END;
$$ LANGUAGE plpgsql IMMUTABLE;`
)

const genreArrayFunc = "moviedex_genre_array"

// Index DDL for common queries.
const (
	idxItemsKind        = `CREATE INDEX IF NOT EXISTS idx_items_kind ON items(kind);`
	idxItemsReleaseYear = `CREATE INDEX IF NOT EXISTS idx_items_release_year ON items(release_year);`
)

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxItemsKind,
	idxItemsReleaseYear,
}

// itemColumns is the column list shared by every SELECT on items.
const itemColumns = `id, kind, title, director, genres, release_year, duration, age_rating,
    favourite, is_animated, watched, topic, documentarian, moral_lesson, parental_appeal`
