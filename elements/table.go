package elements

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
)

type IValidatable interface {
	IsValid() error
}

type Table struct {
	name             string
	columns          []Column
	columnPartitions []ColumnPartition
	bucketPartition  *ColumnPartition
	sortColumns      []string
}

func NewTable(name string) *Table {
	return &Table{
		name:             name,
		columns:          []Column{},
		columnPartitions: []ColumnPartition{},
	}
}

func (obj *Table) TableName() string {
	return obj.name
}

func (obj *Table) Columns() []Column {
	return obj.columns
}

func (obj *Table) ColumnPartitions() []ColumnPartition {
	return obj.columnPartitions
}

func (obj *Table) PartitionColumnNames() []string {
	names := make([]string, len(obj.columnPartitions))
	for i, colPart := range obj.columnPartitions {
		names[i] = colPart.Name()
	}
	return names
}

// BucketPartition returns the partition used to spread the rows of a
// single output directory over several files, or nil.
func (obj *Table) BucketPartition() *ColumnPartition {
	return obj.bucketPartition
}

// SortColumns are the columns the rows of each data file are ordered by.
func (obj *Table) SortColumns() []string {
	return obj.sortColumns
}

func (obj *Table) AddColumns(columns ...Column) *Table {
	obj.columns = append(obj.columns, columns...)
	return obj
}

func (obj *Table) AddColumnPartitions(partitions ...ColumnPartition) *Table {
	obj.columnPartitions = append(obj.columnPartitions, partitions...)
	return obj
}

func (obj *Table) SetBucketPartition(partition ColumnPartition) *Table {
	obj.bucketPartition = &partition
	return obj
}

func (obj *Table) SetSortColumns(columns ...string) *Table {
	obj.sortColumns = columns
	return obj
}

func (obj *Table) IsValid() error {
	if obj.name == "" {
		return fmt.Errorf("%w| name invalid", ErrTableInvalid)
	}

	if len(obj.columns) == 0 {
		return fmt.Errorf("%w| table does not have columns", ErrTableInvalid)
	}

	uniqColumns := make(map[string]struct{}, len(obj.columns))
	for _, col := range obj.columns {
		if !col.IsValid() {
			return fmt.Errorf("%w| table has invalid column", ErrTableInvalid)
		}
		if _, ok := uniqColumns[col.Name]; ok {
			return fmt.Errorf("%w| duplicate column %s", ErrTableInvalid, col.Name)
		}
		uniqColumns[col.Name] = struct{}{}
	}

	// each partition column is uniq
	uniqPartitionColumns := make(map[string]Column)
	for _, colPart := range obj.columnPartitions {
		col, err := obj.GetColumnByName(colPart.columnName)
		if err != nil {
			return fmt.Errorf("%w| partition column %s is not a column in the table", ErrTableInvalid, colPart.columnName)
		}
		if err := colPart.partitionOptions.Validate(); err != nil {
			return fmt.Errorf("%w| partition column %s: %w", ErrTableInvalid, colPart.columnName, err)
		}
		uniqPartitionColumns[colPart.columnName] = col
	}
	if len(uniqPartitionColumns) < len(obj.columnPartitions) {
		return fmt.Errorf("%w| duplicate partition columns", ErrTableInvalid)
	}
	if len(uniqPartitionColumns) == len(obj.columns) {
		return fmt.Errorf("%w| every column is a partition column", ErrTableInvalid)
	}

	if obj.bucketPartition != nil {
		col, err := obj.GetColumnByName(obj.bucketPartition.columnName)
		if err != nil {
			return fmt.Errorf("%w| bucket column %s is not a column in the table", ErrTableInvalid, obj.bucketPartition.columnName)
		}
		if col.Dtype.ID() != arrow.STRING {
			return fmt.Errorf("%w| bucket column %s must be a string column", ErrTableInvalid, col.Name)
		}
		if _, ok := uniqPartitionColumns[col.Name]; ok {
			return fmt.Errorf("%w| bucket column %s is also a partition column", ErrTableInvalid, col.Name)
		}
		if err := obj.bucketPartition.partitionOptions.Validate(); err != nil {
			return fmt.Errorf("%w| bucket column %s: %w", ErrTableInvalid, col.Name, err)
		}
	}

	for _, sortColumn := range obj.sortColumns {
		if _, err := obj.GetColumnByName(sortColumn); err != nil {
			return fmt.Errorf("%w| sort column %s is not a column in the table", ErrTableInvalid, sortColumn)
		}
	}

	return nil
}

func (obj *Table) GetColumnByName(name string) (Column, error) {
	for _, col := range obj.columns {
		if col.Name == name {
			return col, nil
		}
	}
	return Column{}, ErrColumnNotFound
}

// Schema is the schema of the full table including partition columns.
func (obj *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(obj.columns))
	for i, col := range obj.columns {
		fields[i] = col.Field()
	}
	return arrow.NewSchema(fields, nil)
}

// FileSchema is the schema of the data files. Partition columns are
// encoded in the object path and left out of the files.
func (obj *Table) FileSchema() *arrow.Schema {
	partCols := make(map[string]struct{}, len(obj.columnPartitions))
	for _, colPart := range obj.columnPartitions {
		partCols[colPart.columnName] = struct{}{}
	}
	fields := make([]arrow.Field, 0, len(obj.columns))
	for _, col := range obj.columns {
		if _, ok := partCols[col.Name]; ok {
			continue
		}
		fields = append(fields, col.Field())
	}
	return arrow.NewSchema(fields, nil)
}

////////////////////////////////////////

type Column struct {
	Name  string
	Dtype arrow.DataType
}

func NewColumn(name string, dtype arrow.DataType) Column {
	return Column{
		Name:  name,
		Dtype: dtype,
	}
}

func (obj *Column) IsValid() bool {
	if obj.Name == "" {
		return false
	}

	if obj.Dtype == nil {
		return false
	}
	return true
}

func (obj Column) Field() arrow.Field {
	return arrow.Field{Name: obj.Name, Type: obj.Dtype, Nullable: true}
}

////////////////////////////////////////

type IPartitionOptions interface {
	PartitionType() string
	PartitionFunc() PartitionFunc
	Validate() error
}

type ColumnPartition struct {
	columnName       string
	partitionOptions IPartitionOptions
}

func NewColumnPartition(columnName string, partitionOptions IPartitionOptions) ColumnPartition {
	return ColumnPartition{
		columnName:       columnName,
		partitionOptions: partitionOptions,
	}
}

func (obj ColumnPartition) Name() string {
	return obj.columnName
}
func (obj ColumnPartition) Options() IPartitionOptions {
	return obj.partitionOptions
}

////////////////////////////////////////

// Partition is one output directory of a table. Key is the Hive style
// path below the table prefix and is empty for unpartitioned tables.
type Partition struct {
	TableName string `json:"table_name"`
	Key       string `json:"key"`
}
