package meter

import (
	"time"
)

const (
	// DefaultField is the field name written for totaliser readings.
	DefaultField = "totalValue"

	// QualityGood is the OPC-style quality code attached to every imported
	// reading (0xC0: good, non-specific).
	QualityGood = 192
)

// Definition maps one worksheet column to a logical meter. Column is the
// short header code ("M1"), Label the human-readable name expected in the
// workbook's label row, Topic the series the readings are published under.
type Definition struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
	Topic  string `yaml:"topic"`
	Field  string `yaml:"field"`
}

// FieldName returns the configured field name, defaulting to DefaultField.
func (d Definition) FieldName() string {
	if d.Field == "" {
		return DefaultField
	}
	return d.Field
}

// Reading is one normalized time-series row ready for storage. The db tags
// match the target table's columns.
type Reading struct {
	Time        time.Time `db:"time"`
	FieldName   string    `db:"field_name"`
	Topic       string    `db:"topic"`
	Value       float64   `db:"value"`
	QualityCode int       `db:"quality_code"`
}

// DefaultMapping is the built-in column-to-meter table: one incoming main
// metered on worksheet column M1.
func DefaultMapping() []Definition {
	return []Definition{
		{
			Column: "M1",
			Label:  "Main Incoming Water",
			Topic:  "Astellas/Primary/Main_Incoming_Water",
			Field:  DefaultField,
		},
	}
}
