// Package backup snapshots the document store into a local SQL database
// and restores it, for disaster recovery and local inspection. Timestamps
// survive the round trip via a tagged JSON encoding.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	// SQL drivers for the supported snapshot targets.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"palabritas/internal/repository"
	"palabritas/internal/store"
)

// topCollections are the store collections included in a snapshot.
// Per-student dictionaries are discovered from the student records.
var topCollections = []string{
	repository.UsersCollection,
	repository.StudentsCollection,
	repository.WordsCollection,
	repository.AssignmentsCollection,
}

// Service copies documents between the store and a SQL snapshot database.
type Service struct {
	store   store.Store
	db      *sql.DB
	dialect dialect
}

// NewService opens the snapshot database for the given driver and DSN.
func NewService(st store.Store, driver, dsn string) (*Service, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if _, err := db.Exec(d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &Service{store: st, db: db, dialect: d}, nil
}

// Close releases the snapshot database.
func (s *Service) Close() error {
	return s.db.Close()
}

// Export copies every document from the store into the snapshot database.
// Returns the number of documents written.
func (s *Service) Export(ctx context.Context) (int, error) {
	count := 0
	for _, collection := range topCollections {
		docs, err := s.store.Collection(collection).Query().Documents(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to read %s: %w", collection, err)
		}

		for _, doc := range docs {
			if err := s.writeRow(ctx, collection, doc); err != nil {
				return count, err
			}
			count++
		}

		if collection == repository.StudentsCollection {
			n, err := s.exportDictionaries(ctx, docs)
			count += n
			if err != nil {
				return count, err
			}
		}
	}
	log.Printf("Exported %d documents", count)
	return count, nil
}

func (s *Service) exportDictionaries(ctx context.Context, students []store.Document) (int, error) {
	count := 0
	for _, student := range students {
		path := fmt.Sprintf("%s/%s/%s", repository.StudentsCollection, student.ID, repository.DictionaryCollection)

		docs, err := s.store.Collection(repository.StudentsCollection, student.ID, repository.DictionaryCollection).
			Query().Documents(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to read %s: %w", path, err)
		}

		for _, doc := range docs {
			if err := s.writeRow(ctx, path, doc); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// Import merges every snapshot row back into the store. Returns the number
// of documents restored.
func (s *Service) Import(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.selectAll)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var collection, docID, encoded string
		if err := rows.Scan(&collection, &docID, &encoded); err != nil {
			return count, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		data, err := DecodeDocument([]byte(encoded))
		if err != nil {
			return count, fmt.Errorf("failed to decode %s/%s: %w", collection, docID, err)
		}

		path := strings.Split(collection, "/")
		if err := s.store.Collection(path...).Doc(docID).Merge(ctx, data); err != nil {
			return count, fmt.Errorf("failed to restore %s/%s: %w", collection, docID, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("failed to iterate snapshot: %w", err)
	}

	log.Printf("Imported %d documents", count)
	return count, nil
}

func (s *Service) writeRow(ctx context.Context, collection string, doc store.Document) error {
	encoded, err := EncodeDocument(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, doc.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, collection, doc.ID, string(encoded)); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// timeField tags timestamps in the encoded document so Import can restore
// them as real time values rather than strings.
const timeField = "$time"

// EncodeDocument serializes a document body for the snapshot table.
func EncodeDocument(data map[string]any) ([]byte, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if t, ok := v.(time.Time); ok {
			out[k] = map[string]any{timeField: t.UTC().Format(time.RFC3339Nano)}
		} else {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// DecodeDocument restores a document body from the snapshot table.
func DecodeDocument(encoded []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if tagged, ok := v.(map[string]any); ok {
			if stamp, ok := tagged[timeField].(string); ok && len(tagged) == 1 {
				t, err := time.Parse(time.RFC3339Nano, stamp)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", k, err)
				}
				out[k] = t
				continue
			}
		}
		if n, ok := v.(float64); ok && n == float64(int64(n)) {
			out[k] = int64(n)
			continue
		}
		out[k] = v
	}
	return out, nil
}
