package storage

const schemaV1 = `
CREATE TABLE IF NOT EXISTS accounts (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id         TEXT UNIQUE NOT NULL,
    account_name       TEXT NOT NULL,
    access_key_id      TEXT NOT NULL,
    secret_access_key  TEXT NOT NULL,
    session_token      TEXT,
    created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS regions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id  INTEGER NOT NULL,
    region      TEXT NOT NULL,
    enabled     INTEGER NOT NULL DEFAULT 1,
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(account_id, region),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE INDEX IF NOT EXISTS idx_regions_account ON regions(account_id);

CREATE TABLE IF NOT EXISTS findings (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id     INTEGER NOT NULL,
    region         TEXT NOT NULL,
    resource_id    TEXT NOT NULL,
    resource_type  TEXT NOT NULL,
    resource_name  TEXT,
    service        TEXT NOT NULL,
    severity       TEXT NOT NULL CHECK (severity IN ('HIGH', 'MEDIUM', 'LOW')),
    title          TEXT NOT NULL,
    description    TEXT NOT NULL,
    remediation    TEXT,
    created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE INDEX IF NOT EXISTS idx_findings_account ON findings(account_id);
CREATE INDEX IF NOT EXISTS idx_findings_resource ON findings(resource_id);
CREATE INDEX IF NOT EXISTS idx_findings_created ON findings(created_at DESC);
`
