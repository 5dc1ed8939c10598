package partitionFuncs

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
)

func partitionColumn(record arrow.Record, column string) (arrow.Array, error) {
	columnIdxs := record.Schema().FieldIndices(column)
	if len(columnIdxs) == 0 {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column %s", column)), ErrColumnNotFound)
	} else if len(columnIdxs) > 1 {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column %s", column)), ErrMultipleColumnsFound)
	}
	return record.Column(columnIdxs[0]), nil
}
