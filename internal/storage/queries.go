package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zheng/cuml/internal/model"
)

// StoredFile is an extracted file as kept in the database
type StoredFile struct {
	ID      int64
	Path    string
	Package string
	Hash    string
	File    *model.File
}

// Declaration is a row of the declarations index
type Declaration struct {
	ID       int64
	Kind     model.Kind
	Name     string
	Path     string
	Package  string
	Position int
}

// Stats summarizes the database contents
type Stats struct {
	Files        int64
	Declarations int64
	ByKind       map[model.Kind]int64
}

// SaveFile stores the model of one source file, replacing any previous
// snapshot of the same path together with its declaration rows
func (db *DB) SaveFile(path, pkg, hash string, file *model.File) (int64, error) {
	blob, err := model.Encode(file)
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(
		`INSERT INTO files (path, package, hash, model, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			package = excluded.package,
			hash = excluded.hash,
			model = excluded.model,
			updated_at = excluded.updated_at
		 RETURNING id`,
		path, pkg, hash, blob, time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", path, err)
	}

	if _, err := tx.Exec(`DELETE FROM declarations WHERE file_id = ?`, id); err != nil {
		return 0, err
	}
	for _, d := range model.Declarations([]*model.File{file}) {
		_, err := tx.Exec(
			`INSERT INTO declarations (file_id, kind, name, position) VALUES (?, ?, ?, ?)`,
			id, d.Part.Kind(), d.Part.NodeName(), d.Position,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to index %s: %w", d.Part.NodeName(), err)
		}
	}

	return id, tx.Commit()
}

// FileHash returns the stored content hash of path, or "" when the file is unknown
func (db *DB) FileHash(path string) (string, error) {
	var hash string
	err := db.conn.QueryRow(`SELECT hash FROM files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// LoadFiles decodes every stored file in insertion order
func (db *DB) LoadFiles() ([]*StoredFile, error) {
	rows, err := db.conn.Query(`SELECT id, path, package, hash, model FROM files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*StoredFile
	for rows.Next() {
		var f StoredFile
		var blob []byte
		if err := rows.Scan(&f.ID, &f.Path, &f.Package, &f.Hash, &blob); err != nil {
			return nil, err
		}
		f.File, err = model.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot of %s: %w", f.Path, err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// Models returns the models of the stored files in insertion order
func Models(stored []*StoredFile) []*model.File {
	files := make([]*model.File, len(stored))
	for i, s := range stored {
		files[i] = s.File
	}
	return files
}

// ListPaths returns the stored file paths in insertion order
func (db *DB) ListPaths() ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFiles removes the given paths and their declarations.
// Returns the number of deleted files.
func (db *DB) DeleteFiles(paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(paths))
	args := make([]interface{}, len(paths))
	for i, p := range paths {
		placeholders[i] = "?"
		args[i] = p
	}

	result, err := db.conn.Exec(`DELETE FROM files WHERE path IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const declarationColumns = `d.id, d.kind, d.name, f.path, f.package, d.position
	FROM declarations d JOIN files f ON f.id = d.file_id`

// FindDeclarations returns declarations whose name contains pattern.
// Results are sorted by match quality: exact name > prefix > contains.
func (db *DB) FindDeclarations(pattern string) ([]*Declaration, error) {
	rows, err := db.conn.Query(
		`SELECT `+declarationColumns+`
		 WHERE d.name LIKE ?
		 ORDER BY
			CASE
				WHEN d.name = ? THEN 0
				WHEN d.name LIKE ? || '%' THEN 1
				ELSE 2
			END,
			length(d.name) ASC, f.id, d.position`,
		"%"+pattern+"%", pattern, pattern,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeclarations(rows)
}

// ListDeclarations returns declarations in file and position order. An empty
// kind lists every kind; limit <= 0 means no limit.
func (db *DB) ListDeclarations(kind model.Kind, limit, offset int) ([]*Declaration, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT `+declarationColumns+`
		 WHERE ? = '' OR d.kind = ?
		 ORDER BY f.id, d.position
		 LIMIT ? OFFSET ?`,
		kind, kind, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeclarations(rows)
}

// GetStats returns database statistics
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{ByKind: make(map[model.Kind]int64)}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&stats.Files); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`SELECT kind, COUNT(*) FROM declarations GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind model.Kind
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats.ByKind[kind] = n
		stats.Declarations += n
	}
	return stats, rows.Err()
}

func scanDeclarations(rows *sql.Rows) ([]*Declaration, error) {
	var decls []*Declaration
	for rows.Next() {
		var d Declaration
		if err := rows.Scan(&d.ID, &d.Kind, &d.Name, &d.Path, &d.Package, &d.Position); err != nil {
			return nil, err
		}
		decls = append(decls, &d)
	}
	return decls, rows.Err()
}
