package sqlite

// Schema mirrors the PostgreSQL schema. Instants are stored as UTC text so
// range predicates compare lexically in chronological order.
const Schema = `
CREATE TABLE IF NOT EXISTS schedule_templates (
    id           TEXT PRIMARY KEY,
    child_id     TEXT NOT NULL,
    type         TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT,
    notes        TEXT,
    frequency    TEXT NOT NULL CHECK (frequency IN ('daily', 'weekly', 'monthly')),
    weekday      INTEGER CHECK (weekday BETWEEN 1 AND 7),
    time_of_day  TEXT NOT NULL,
    is_active    BOOLEAN NOT NULL DEFAULT 1,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS schedule_templates_natural_key
    ON schedule_templates (child_id, type, title, frequency, COALESCE(weekday, 0), time_of_day);

CREATE TABLE IF NOT EXISTS schedules (
    id                 TEXT PRIMARY KEY,
    child_id           TEXT NOT NULL,
    template_id        TEXT REFERENCES schedule_templates (id) ON DELETE CASCADE,
    scheduled_time     TIMESTAMP NOT NULL,
    type               TEXT NOT NULL,
    title              TEXT NOT NULL,
    description        TEXT,
    notes              TEXT,
    status             TEXT NOT NULL DEFAULT 'scheduled',
    has_been_modified  BOOLEAN NOT NULL DEFAULT 0,
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS schedules_child_time ON schedules (child_id, scheduled_time);
CREATE INDEX IF NOT EXISTS schedules_template ON schedules (template_id);
`
