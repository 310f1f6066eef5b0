package data

// SchemaVersion is stored in PRAGMA user_version of every database created by Open.
const SchemaVersion = 1

const SQLCreate = `
PRAGMA encoding = 'UTF-8';

CREATE TABLE IF NOT EXISTS company
(
    id   INTEGER PRIMARY KEY NOT NULL,
    name TEXT                NOT NULL UNIQUE
);
`

const sqlCreateMetricTable = `
CREATE TABLE IF NOT EXISTS %s
(
    id         INTEGER PRIMARY KEY NOT NULL,
    company_id INTEGER             NOT NULL,
    data1      TEXT,
    data2      TEXT,
    date       TEXT,

    FOREIGN KEY (company_id) REFERENCES company (id)
);
`
