// Package export writes derived tables to XLSX workbooks, SQLite databases
// and CSV files. Every export is one-shot output; nothing reads it back.
package export

import (
	"bytes"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/cannalytics/internal/table"
	"github.com/KaramelBytes/cannalytics/internal/utils"
)

// Formats lists the supported export formats.
var Formats = []string{"xlsx", "sqlite", "csv"}

// maxSheetName is Excel's sheet name limit.
const maxSheetName = 31

// Manifest describes one export run.
type Manifest struct {
	RunID   string      `json:"run_id"`
	Format  string      `json:"format"`
	Path    string      `json:"path"`
	Created time.Time   `json:"created"`
	Tables  []TableInfo `json:"tables"`
}

// TableInfo is one exported table.
type TableInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

func newManifest(format, path string, tables []*table.Table) Manifest {
	m := Manifest{RunID: uuid.NewString(), Format: format, Path: path, Created: time.Now().UTC()}
	for _, t := range tables {
		m.Tables = append(m.Tables, TableInfo{Name: t.Name(), Rows: t.NumRows()})
	}
	return m
}

// Write dispatches on format. For csv, path is a directory.
func Write(format, path string, tables []*table.Table) (Manifest, error) {
	if err := checkNames(tables); err != nil {
		return Manifest{}, err
	}
	switch strings.ToLower(format) {
	case "xlsx", "excel":
		return XLSX(path, tables)
	case "sqlite", "sqlite3", "db":
		return SQLite(path, tables)
	case "csv":
		return CSV(path, tables)
	}
	return Manifest{}, fmt.Errorf("unsupported export format %q (use %s)", format, strings.Join(Formats, ", "))
}

func checkNames(tables []*table.Table) error {
	seen := map[string]bool{}
	for _, t := range tables {
		if t == nil {
			return fmt.Errorf("nil table in export")
		}
		if t.Name() == "" {
			return fmt.Errorf("export table without a name")
		}
		if seen[t.Name()] {
			return fmt.Errorf("duplicate export table %q", t.Name())
		}
		seen[t.Name()] = true
	}
	return nil
}

// XLSX writes one sheet per table, header in row 1.
func XLSX(path string, tables []*table.Table) (Manifest, error) {
	f := excelize.NewFile()
	defer f.Close()
	first := true
	for _, t := range tables {
		sheet := sheetName(t.Name())
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return Manifest{}, fmt.Errorf("rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return Manifest{}, fmt.Errorf("new sheet %s: %w", sheet, err)
		}
		for c, name := range t.Columns() {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return Manifest{}, err
			}
		}
		for r := 0; r < t.NumRows(); r++ {
			for c, v := range t.Row(r) {
				if v.IsNull() {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
					return Manifest{}, err
				}
			}
		}
	}
	if first {
		return Manifest{}, fmt.Errorf("nothing to export")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return Manifest{}, err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return Manifest{}, fmt.Errorf("save workbook: %w", err)
	}
	return newManifest("xlsx", path, tables), nil
}

func sheetName(name string) string {
	r := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")
	s := r.Replace(name)
	if len([]rune(s)) > maxSheetName {
		s = string([]rune(s)[:maxSheetName])
	}
	return s
}

func cellValue(v table.Value) any {
	if v.Kind() == table.KindDate {
		t, _ := v.Time()
		return t.Format(table.DateLayout)
	}
	return v.Interface()
}

// SQLite recreates one SQL table per input table and records the run in
// export_runs.
func SQLite(path string, tables []*table.Table) (Manifest, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return Manifest{}, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Manifest{}, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	m := newManifest("sqlite", path, tables)
	tx, err := db.Begin()
	if err != nil {
		return Manifest{}, err
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := writeSQLTable(tx, t); err != nil {
			return Manifest{}, fmt.Errorf("table %s: %w", t.Name(), err)
		}
	}
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS "export_runs" ("run_id" TEXT, "created_at" TEXT, "table_name" TEXT, "rows" INTEGER)`); err != nil {
		return Manifest{}, err
	}
	for _, ti := range m.Tables {
		if _, err := tx.Exec(`INSERT INTO "export_runs" VALUES (?, ?, ?, ?)`, m.RunID, m.Created.Format(time.RFC3339), ti.Name, ti.Rows); err != nil {
			return Manifest{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Manifest{}, fmt.Errorf("commit: %w", err)
	}
	return m, nil
}

func writeSQLTable(tx *sql.Tx, t *table.Table) error {
	name := quote(t.Name())
	cols := t.Columns()
	defs := make([]string, len(cols))
	qCols := make([]string, len(cols))
	for i, c := range cols {
		vals, _ := t.Column(c)
		defs[i] = fmt.Sprintf("%s %s", quote(c), sqlType(vals))
		qCols[i] = quote(c)
	}
	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + name); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE ` + name + ` (` + strings.Join(defs, ",") + `)`); err != nil {
		return err
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.Prepare(`INSERT INTO ` + name + ` (` + strings.Join(qCols, ",") + `) VALUES (` + ph + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	args := make([]any, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for c, v := range t.Row(r) {
			args[c] = cellValue(v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// sqlType picks the column affinity from the non-null kinds present.
func sqlType(vals []table.Value) string {
	kinds := map[table.Kind]bool{}
	for _, v := range vals {
		if !v.IsNull() {
			kinds[v.Kind()] = true
		}
	}
	switch {
	case len(kinds) == 1 && kinds[table.KindInt]:
		return "INTEGER"
	case len(kinds) > 0 && !kinds[table.KindString] && !kinds[table.KindDate]:
		return "REAL"
	}
	return "TEXT"
}

// CSV writes <dir>/<table>.csv for every table.
func CSV(dir string, tables []*table.Table) (Manifest, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return Manifest{}, fmt.Errorf("create export dir: %w", err)
	}
	for _, t := range tables {
		var buf bytes.Buffer
		if err := table.WriteCSV(&buf, t); err != nil {
			return Manifest{}, fmt.Errorf("table %s: %w", t.Name(), err)
		}
		if err := utils.SafeWriteFile(filepath.Join(dir, t.Name()+".csv"), buf.Bytes()); err != nil {
			return Manifest{}, err
		}
	}
	return newManifest("csv", dir, tables), nil
}

// Names returns the exported table names, sorted.
func (m Manifest) Names() []string {
	out := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		out[i] = t.Name
	}
	sort.Strings(out)
	return out
}
