package parquet

// Row represents a parquet row as a flat list of values carrying their column
// index, repetition and definition levels. Values are ordered by column, and
// within a column by occurrence.
type Row []Value

// Clone creates a deep copy of the row values.
func (row Row) Clone() Row {
	clone := make(Row, len(row))
	for i, v := range row {
		clone[i] = v.Clone()
	}
	return clone
}

// Equal returns true if row and other contain the same values with the same
// levels and column indexes.
func (row Row) Equal(other Row) bool {
	if len(row) != len(other) {
		return false
	}
	for i := range row {
		a, b := row[i], other[i]
		if !Equal(a, b) ||
			a.repetitionLevel != b.repetitionLevel ||
			a.definitionLevel != b.definitionLevel ||
			a.columnIndex != b.columnIndex {
			return false
		}
	}
	return true
}

// Range calls f for each column of the row, passing the column index and the
// contiguous range of values belonging to it. Iteration stops if f returns
// false.
func (row Row) Range(f func(columnIndex int, columnValues []Value) bool) {
	for i := 0; i < len(row); {
		j := i + 1
		for j < len(row) && row[j].columnIndex == row[i].columnIndex {
			j++
		}
		if !f(row[i].Column(), row[i:j:j]) {
			break
		}
		i = j
	}
}

// DefinitionLevels appends the definition levels of the values of the given
// column to levels.
func (row Row) DefinitionLevels(levels []uint8, columnIndex int) []uint8 {
	for _, v := range row {
		if v.Column() == columnIndex {
			levels = append(levels, v.definitionLevel)
		}
	}
	return levels
}

// RepetitionLevels appends the repetition levels of the values of the given
// column to levels.
func (row Row) RepetitionLevels(levels []uint8, columnIndex int) []uint8 {
	for _, v := range row {
		if v.Column() == columnIndex {
			levels = append(levels, v.repetitionLevel)
		}
	}
	return levels
}
