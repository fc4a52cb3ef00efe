package store

const schema = `
CREATE TABLE IF NOT EXISTS votes (
    voter_id  TEXT NOT NULL,
    cafe      TEXT NOT NULL,
    score     REAL NOT NULL,
    ts        TIMESTAMP NOT NULL,
    PRIMARY KEY (voter_id, cafe)
);

CREATE INDEX IF NOT EXISTS idx_votes_cafe ON votes(cafe);
`
