package operations

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/alekLukanen/errs"

	"github.com/alekLukanen/SparkifyLake/elements"
)

type ITableRegistry interface {
	AddTables(tables ...*elements.Table) error
	GetTable(tableName string) (*elements.Table, error)
	TableExists(tableName string) bool
	Tables() []*elements.Table
}

type TableRegistry struct {
	logger *slog.Logger

	tables map[string]*elements.Table
}

func NewTableRegistry(ctx context.Context, logger *slog.Logger) *TableRegistry {
	return &TableRegistry{
		logger: logger,
		tables: make(map[string]*elements.Table),
	}
}

func (obj *TableRegistry) AddTables(tables ...*elements.Table) error {
	for _, table := range tables {
		if err := table.IsValid(); err != nil {
			return errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", table.TableName())), err)
		}
		if _, exists := obj.tables[table.TableName()]; exists {
			return errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", table.TableName())), ErrTableAlreadyAddedToRegistry)
		}
		obj.tables[table.TableName()] = table
	}
	return nil
}

func (obj *TableRegistry) GetTable(tableName string) (*elements.Table, error) {
	table, exists := obj.tables[tableName]
	if !exists {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", tableName)), ErrTableNotFound)
	}
	return table, nil
}

func (obj *TableRegistry) TableExists(tableName string) bool {
	_, exists := obj.tables[tableName]
	return exists
}

// Tables returns the registered tables sorted by name.
func (obj *TableRegistry) Tables() []*elements.Table {
	tables := make([]*elements.Table, 0, len(obj.tables))
	for _, table := range obj.tables {
		tables = append(tables, table)
	}
	slices.SortFunc(tables, func(a, b *elements.Table) int {
		return cmp.Compare(a.TableName(), b.TableName())
	})
	return tables
}
