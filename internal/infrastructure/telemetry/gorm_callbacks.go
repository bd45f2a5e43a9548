package telemetry

import (
	"strings"

	"gorm.io/gorm"
)

// gormOperation pairs a GORM processor with the SQL verb it issues. Row and
// Raw report "" and the verb is read from the statement.
type gormOperation struct {
	name      string
	processor func(db *gorm.DB) gormProcessor
	verb      string
}

// gormRegister is the Register method of a positioned GORM callback.
type gormRegister func(name string, fn func(*gorm.DB)) error

// gormProcessor exposes Before and After of a GORM processor, whose type
// gorm does not export.
type gormProcessor struct {
	Before func(name string) gormRegister
	After  func(name string) gormRegister
}

func wrapProcessor[C interface {
	Register(string, func(*gorm.DB)) error
}](p interface {
	Before(string) C
	After(string) C
}) gormProcessor {
	return gormProcessor{
		Before: func(name string) gormRegister { return p.Before(name).Register },
		After:  func(name string) gormRegister { return p.After(name).Register },
	}
}

var gormOperations = []gormOperation{
	{"create", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Create()) }, "INSERT"},
	{"query", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Query()) }, "SELECT"},
	{"update", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Update()) }, "UPDATE"},
	{"delete", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Delete()) }, "DELETE"},
	{"row", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Row()) }, ""},
	{"raw", func(db *gorm.DB) gormProcessor { return wrapProcessor(db.Callback().Raw()) }, ""},
}

// registerAround installs before and after on every GORM processor under
// "<prefix>:before_<op>" and "<prefix>:after_<op>".
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(*gorm.DB, string)) error {
	for _, op := range gormOperations {
		gormName := "gorm:" + op.name
		if before != nil {
			if err := op.processor(db).Before(gormName)(prefix+":before_"+op.name, before); err != nil {
				return err
			}
		}
		if after != nil {
			verb := op.verb
			cb := func(tx *gorm.DB) {
				v := verb
				if v == "" {
					v = detectOperationType(tx.Statement.SQL.String())
				}
				after(tx, v)
			}
			if err := op.processor(db).After(gormName)(prefix+":after_"+op.name, cb); err != nil {
				return err
			}
		}
	}
	return nil
}

// detectOperationType reads the SQL verb of a raw statement.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
