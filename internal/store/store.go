// Package store exports analysis results to a SQLite database.
package store

import (
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/mabhi256/hangdiag/internal/splist"
)

const (
	CategoryLarge     = "large_field_count"
	CategoryWildcard  = "wildcard_fields"
	CategoryUnbounded = "no_row_limit"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT NOT NULL,
	dump_index      INTEGER NOT NULL,
	dump            TEXT NOT NULL,
	path            TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	signature_frame TEXT NOT NULL,
	max_view_fields INTEGER NOT NULL,
	threads_scanned INTEGER NOT NULL,
	threads_matched INTEGER NOT NULL,
	PRIMARY KEY (run_id, dump_index)
);

CREATE TABLE IF NOT EXISTS threads (
	run_id             TEXT NOT NULL,
	dump_index         INTEGER NOT NULL,
	thread_id          INTEGER NOT NULL,
	signature_index    INTEGER NOT NULL,
	query_object_found INTEGER NOT NULL,
	has_view_fields    INTEGER,
	field_count        INTEGER,
	has_row_limit      INTEGER,
	row_limit          INTEGER,
	descriptor         TEXT,
	error              TEXT,
	PRIMARY KEY (run_id, dump_index, thread_id)
);

CREATE TABLE IF NOT EXISTS findings (
	run_id      TEXT NOT NULL,
	dump_index  INTEGER NOT NULL,
	category    TEXT NOT NULL,
	position    INTEGER NOT NULL,
	thread_id   INTEGER NOT NULL,
	field_count INTEGER
);

CREATE TABLE IF NOT EXISTS fields (
	run_id     TEXT NOT NULL,
	dump_index INTEGER NOT NULL,
	thread_id  INTEGER NOT NULL,
	position  INTEGER NOT NULL,
	name      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id, dump_index, category);
`

func open(path string) (*sqlite.Conn, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA synchronous = NORMAL", nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Export appends one run to the database at path, creating the schema when
// needed. All results share runID and are written in a single transaction.
func Export(path, runID string, results ...*splist.Result) (err error) {
	conn, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer endFn(&err)

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for i, result := range results {
		if err := insertRun(conn, runID, i, createdAt, result); err != nil {
			return err
		}
		if err := insertThreads(conn, runID, i, result); err != nil {
			return err
		}
		if err := insertFindings(conn, runID, i, result); err != nil {
			return err
		}
	}
	return nil
}

func insertRun(conn *sqlite.Conn, runID string, dumpIndex int, createdAt string, result *splist.Result) error {
	return sqlitex.Execute(conn,
		`INSERT INTO runs (run_id, dump_index, dump, path, created_at, signature_frame, max_view_fields, threads_scanned, threads_matched)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			runID, dumpIndex, result.Dump, result.Path, createdAt, result.Rule.SignatureFrame, result.Rule.MaxViewFields,
			result.ThreadsScanned, len(result.Threads),
		}})
}

func insertThreads(conn *sqlite.Conn, runID string, dumpIndex int, result *splist.Result) error {
	stmt, err := conn.Prepare(`INSERT INTO threads (run_id, dump_index, thread_id, signature_index, query_object_found,
		has_view_fields, field_count, has_row_limit, row_limit, descriptor, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare thread insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	fieldStmt, err := conn.Prepare(`INSERT INTO fields (run_id, dump_index, thread_id, position, name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare field insert: %w", err)
	}
	defer func() { _ = fieldStmt.Finalize() }()

	for _, t := range result.Threads {
		stmt.BindText(1, runID)
		stmt.BindInt64(2, int64(dumpIndex))
		stmt.BindInt64(3, int64(t.ThreadID))
		stmt.BindInt64(4, int64(t.SignatureIndex))
		stmt.BindBool(5, t.QueryObjectFound)
		if d := t.Descriptor; d != nil {
			stmt.BindBool(6, d.HasViewFields)
			stmt.BindInt64(7, int64(d.FieldCount))
			stmt.BindBool(8, d.HasRowLimit)
			stmt.BindInt64(9, int64(d.RowLimit))
			stmt.BindText(10, d.Text)
		} else {
			for col := 6; col <= 10; col++ {
				stmt.BindNull(col)
			}
		}
		if t.Err != nil {
			stmt.BindText(11, t.Err.Error())
		} else {
			stmt.BindNull(11)
		}

		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert thread %d: %w", t.ThreadID, err)
		}
		_ = stmt.Reset()

		if t.Descriptor == nil {
			continue
		}
		for i, name := range t.Descriptor.Fields {
			fieldStmt.BindText(1, runID)
			fieldStmt.BindInt64(2, int64(dumpIndex))
			fieldStmt.BindInt64(3, int64(t.ThreadID))
			fieldStmt.BindInt64(4, int64(i))
			fieldStmt.BindText(5, name)
			if _, err := fieldStmt.Step(); err != nil {
				return fmt.Errorf("insert field %s of thread %d: %w", name, t.ThreadID, err)
			}
			_ = fieldStmt.Reset()
		}
	}
	return nil
}

func insertFindings(conn *sqlite.Conn, runID string, dumpIndex int, result *splist.Result) error {
	stmt, err := conn.Prepare(`INSERT INTO findings (run_id, dump_index, category, position, thread_id, field_count)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare finding insert: %w", err)
	}
	defer func() { _ = stmt.Finalize() }()

	insert := func(category string, position, threadID int, fieldCount *int) error {
		stmt.BindText(1, runID)
		stmt.BindInt64(2, int64(dumpIndex))
		stmt.BindText(3, category)
		stmt.BindInt64(4, int64(position))
		stmt.BindInt64(5, int64(threadID))
		if fieldCount != nil {
			stmt.BindInt64(6, int64(*fieldCount))
		} else {
			stmt.BindNull(6)
		}
		if _, err := stmt.Step(); err != nil {
			return fmt.Errorf("insert %s finding for thread %d: %w", category, threadID, err)
		}
		return stmt.Reset()
	}

	for i, fc := range result.Findings.LargeQueries {
		if err := insert(CategoryLarge, i, fc.ThreadID, &fc.Count); err != nil {
			return err
		}
	}
	for i, id := range result.Findings.WildcardQueries {
		if err := insert(CategoryWildcard, i, id, nil); err != nil {
			return err
		}
	}
	for i, id := range result.Findings.UnboundedQueries {
		if err := insert(CategoryUnbounded, i, id, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReadFindings loads the findings recorded for one dump of a run. dumpIndex is
// the position of the result in the Export call.
func ReadFindings(path, runID string, dumpIndex int) (splist.Findings, error) {
	var findings splist.Findings

	conn, err := open(path)
	if err != nil {
		return findings, err
	}
	defer func() { _ = conn.Close() }()

	err = sqlitex.Execute(conn,
		`SELECT category, thread_id, field_count FROM findings
		 WHERE run_id = ? AND dump_index = ? ORDER BY category, position`,
		&sqlitex.ExecOptions{
			Args: []any{runID, dumpIndex},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				threadID := int(stmt.ColumnInt64(1))
				switch category := stmt.ColumnText(0); category {
				case CategoryLarge:
					findings.LargeQueries = append(findings.LargeQueries,
						splist.FieldCount{ThreadID: threadID, Count: int(stmt.ColumnInt64(2))})
				case CategoryWildcard:
					findings.WildcardQueries = append(findings.WildcardQueries, threadID)
				case CategoryUnbounded:
					findings.UnboundedQueries = append(findings.UnboundedQueries, threadID)
				default:
					return fmt.Errorf("unknown finding category %q", category)
				}
				return nil
			},
		})
	if err != nil {
		return findings, fmt.Errorf("read findings: %w", err)
	}
	return findings, nil
}

// RunCount returns the number of distinct runs stored at path.
func RunCount(path string) (int, error) {
	conn, err := open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = conn.Close() }()

	var count int
	err = sqlitex.Execute(conn, `SELECT COUNT(DISTINCT run_id) FROM runs`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = int(stmt.ColumnInt64(0))
			return nil
		},
	})
	return count, err
}
