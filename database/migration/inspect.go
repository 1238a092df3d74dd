package migration

import (
	"fmt"

	"gorm.io/gorm"
)

// Schema inspection helpers over sqlite's PRAGMA interface. Table and column
// names come from our own migration list, never from user input.

func tableExists(db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).
		Scan(&count).Error
	return count > 0, err
}

func columnExists(db *gorm.DB, table, column string) (bool, error) {
	rows, err := db.Raw(fmt.Sprintf("PRAGMA table_info(%q)", table)).Rows()
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

type indexInfo struct {
	Name    string
	Unique  bool
	Origin  string // "c" created index, "u" unique constraint, "pk" primary key
	Columns []string
}

func listIndexes(db *gorm.DB, table string) ([]indexInfo, error) {
	rows, err := db.Raw(fmt.Sprintf("PRAGMA index_list(%q)", table)).Rows()
	if err != nil {
		return nil, err
	}
	var indexes []indexInfo
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		indexes = append(indexes, indexInfo{Name: name, Unique: unique == 1, Origin: origin})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range indexes {
		cols, err := indexColumns(db, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = cols
	}
	return indexes, nil
}

func indexColumns(db *gorm.DB, index string) ([]string, error) {
	rows, err := db.Raw(fmt.Sprintf("PRAGMA index_info(%q)", index)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  *string
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name != nil {
			cols = append(cols, *name)
		}
	}
	return cols, rows.Err()
}

// globalUniqueIndex finds a unique index covering exactly the given column,
// i.e. a pre-multi-tenancy uniqueness constraint that must not survive.
func globalUniqueIndex(db *gorm.DB, table, column string) (*indexInfo, error) {
	indexes, err := listIndexes(db, table)
	if err != nil {
		return nil, err
	}
	for i := range indexes {
		idx := indexes[i]
		if idx.Unique && idx.Origin != "pk" && len(idx.Columns) == 1 && idx.Columns[0] == column {
			return &idx, nil
		}
	}
	return nil, nil
}
