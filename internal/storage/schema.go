package storage

const schema = `
-- 'words' holds the vocabulary entries imported from sources.
CREATE TABLE IF NOT EXISTS words (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT NOT NULL UNIQUE,
    text TEXT NOT NULL,
    translation TEXT NOT NULL,
    example TEXT NOT NULL DEFAULT '',
    category_id INTEGER NOT NULL DEFAULT 0,
    image_file TEXT NOT NULL DEFAULT '',
    audio_file TEXT NOT NULL DEFAULT '',
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- Each word gets two studyable faces: 'normal' and 'inverted'.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    word_id INTEGER NOT NULL,
    card_type TEXT NOT NULL,

    UNIQUE(word_id, card_type),
    FOREIGN KEY(word_id) REFERENCES words(id)
);

-- Per-card scheduling state. state: 0 new, 1 learning, 2 review.
CREATE TABLE IF NOT EXISTS card_states (
    card_id INTEGER PRIMARY KEY,
    state INTEGER NOT NULL DEFAULT 0,
    step INTEGER NOT NULL DEFAULT 0,
    stability REAL NOT NULL,
    difficulty REAL NOT NULL,
    interval_days REAL NOT NULL DEFAULT 0,
    due DATETIME,
    repetitions INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

-- Built sessions; the card list is frozen at creation.
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    new_count INTEGER NOT NULL,
    review_count INTEGER NOT NULL,
    learning_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_cards (
    session_id TEXT NOT NULL,
    card_id INTEGER NOT NULL,
    position INTEGER NOT NULL,

    PRIMARY KEY(session_id, card_id),
    FOREIGN KEY(session_id) REFERENCES sessions(id)
);

-- Append-only answer history. The unique pair backs the duplicate-answer
-- guard even when two submissions race.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    session_id TEXT NOT NULL,
    answered_at DATETIME NOT NULL,
    quality INTEGER NOT NULL,
    time_spent_seconds REAL NOT NULL DEFAULT 0,
    interval_days_before REAL NOT NULL,
    interval_days_after REAL NOT NULL,

    UNIQUE(session_id, card_id)
);

-- 'sources' tracks where words come from: a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
