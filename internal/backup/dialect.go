package backup

import "fmt"

// dialect holds the driver-specific SQL for the snapshot table. The table
// is one row per document: collection path, document ID and the encoded
// document body.
type dialect struct {
	createTable string
	upsert      string
	selectAll   string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "sqlite3":
		return dialect{
			createTable: `CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				doc_id     TEXT NOT NULL,
				data       TEXT NOT NULL,
				PRIMARY KEY (collection, doc_id)
			)`,
			upsert: `INSERT INTO documents (collection, doc_id, data) VALUES (?, ?, ?)
				ON CONFLICT (collection, doc_id) DO UPDATE SET data = excluded.data`,
			selectAll: "SELECT collection, doc_id, data FROM documents ORDER BY collection, doc_id",
		}, nil
	case "postgres":
		return dialect{
			createTable: `CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				doc_id     TEXT NOT NULL,
				data       TEXT NOT NULL,
				PRIMARY KEY (collection, doc_id)
			)`,
			upsert: `INSERT INTO documents (collection, doc_id, data) VALUES ($1, $2, $3)
				ON CONFLICT (collection, doc_id) DO UPDATE SET data = EXCLUDED.data`,
			selectAll: "SELECT collection, doc_id, data FROM documents ORDER BY collection, doc_id",
		}, nil
	case "mysql":
		return dialect{
			createTable: `CREATE TABLE IF NOT EXISTS documents (
				collection VARCHAR(255) NOT NULL,
				doc_id     VARCHAR(255) NOT NULL,
				data       MEDIUMTEXT NOT NULL,
				PRIMARY KEY (collection, doc_id)
			)`,
			upsert: `INSERT INTO documents (collection, doc_id, data) VALUES (?, ?, ?)
				ON DUPLICATE KEY UPDATE data = VALUES(data)`,
			selectAll: "SELECT collection, doc_id, data FROM documents ORDER BY collection, doc_id",
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported backup driver %q", driver)
	}
}
