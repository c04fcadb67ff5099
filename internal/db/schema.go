package db

// Schema creates the template and schedule tables. Children are owned by the
// record layer; the foreign keys to them live in that layer's migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS schedule_templates (
    id           TEXT PRIMARY KEY,
    child_id     TEXT NOT NULL,
    type         TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT,
    notes        TEXT,
    frequency    TEXT NOT NULL CHECK (frequency IN ('daily', 'weekly', 'monthly')),
    weekday      SMALLINT CHECK (weekday BETWEEN 1 AND 7),
    time_of_day  TIME NOT NULL,
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS schedule_templates_natural_key
    ON schedule_templates (child_id, type, title, frequency, COALESCE(weekday, 0), time_of_day);

CREATE INDEX IF NOT EXISTS schedule_templates_active_child
    ON schedule_templates (child_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS schedules (
    id                 TEXT PRIMARY KEY,
    child_id           TEXT NOT NULL,
    template_id        TEXT REFERENCES schedule_templates (id) ON DELETE CASCADE,
    scheduled_time     TIMESTAMPTZ NOT NULL,
    type               TEXT NOT NULL,
    title              TEXT NOT NULL,
    description        TEXT,
    notes              TEXT,
    status             TEXT NOT NULL DEFAULT 'scheduled'
                       CHECK (status IN ('scheduled', 'completed', 'missed', 'cancelled')),
    has_been_modified  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS schedules_child_time ON schedules (child_id, scheduled_time);
CREATE INDEX IF NOT EXISTS schedules_template ON schedules (template_id);
`
