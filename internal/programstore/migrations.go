package programstore

const schema = `
CREATE TABLE IF NOT EXISTS programs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    program_id TEXT NOT NULL,
    material TEXT,
    machine TEXT,
    reference TEXT,
    programmer TEXT,
    date TEXT,
    status TEXT NOT NULL DEFAULT 'Pendente',
    tools TEXT,
    image_path TEXT,
    comments TEXT,
    measurement_notes TEXT,
    process_start_time TIMESTAMP,
    process_end_time TIMESTAMP,
    elapsed_seconds INTEGER NOT NULL DEFAULT 0,
    operators TEXT,
    signature BLOB,
    completed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_programs_status ON programs(status);
CREATE INDEX IF NOT EXISTS idx_programs_program_id ON programs(program_id);
`
