package auth

// Schema defines the sessions table. Applied at startup; idempotent.
// Sessions are disposable, so the table lives in the cache-profile database.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_email TEXT NOT NULL,
	data TEXT,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_sessions_user_email ON sessions(user_email);
`
