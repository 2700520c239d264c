package store

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    f1_hz           REAL NOT NULL,
    f2_hz           REAL NOT NULL,
    sample_rate_hz  REAL NOT NULL,
    intercept_level REAL
);

CREATE TABLE IF NOT EXISTS sweep_points (
    session_id       INTEGER NOT NULL REFERENCES sessions(id),
    step             INTEGER NOT NULL,
    input_level      REAL NOT NULL,
    product_power_db REAL,
    PRIMARY KEY (session_id, step)
);

CREATE INDEX IF NOT EXISTS idx_sweep_points_session ON sweep_points(session_id);
`

const (
	insertSessionSQL = `
INSERT INTO sessions (f1_hz, f2_hz, sample_rate_hz) VALUES (?, ?, ?)`

	updateInterceptSQL = `
UPDATE sessions SET intercept_level = ? WHERE id = ?`

	insertPointSQL = `
INSERT INTO sweep_points (session_id, step, input_level, product_power_db)
VALUES (?, ?, ?, ?)`

	selectSessionsSQL = `
SELECT id, started_at, f1_hz, f2_hz, sample_rate_hz, intercept_level
FROM sessions ORDER BY started_at, id`

	selectPointsSQL = `
SELECT session_id, step, input_level, product_power_db
FROM sweep_points WHERE session_id = ? ORDER BY step`
)
