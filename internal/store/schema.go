package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    os TEXT NOT NULL,
    arch TEXT,
    error TEXT
);

CREATE TABLE IF NOT EXISTS stage_results (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    stage TEXT NOT NULL,
    outcome TEXT NOT NULL,
    detail TEXT,
    version TEXT,
    duration_ms INTEGER,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_stage_results_stage ON stage_results(stage);
`
