// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Researcher must not be blank
//   - Topic must not be blank
//   - Percentage must be a finite number in [0, 100]
//
// NOT validated:
//   - Field (a missing field of research is allowed)
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if strings.TrimSpace(record.Researcher) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyResearcher)
	}

	if strings.TrimSpace(record.Topic) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyTopic)
	}

	if !IsValidPercentage(record.Percentage) {
		return fmt.Errorf("%w: %w: got %v", ErrInvalidRecord, ErrPercentageRange, record.Percentage)
	}

	return nil
}

// IsValidPercentage checks that p is finite and within [0, 100].
func IsValidPercentage(p float64) bool {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return false
	}
	return p >= 0 && p <= 100
}

// CheckSchema returns a *SchemaError naming every required column absent from
// the table header, or nil when all are present. Missing names are sorted.
func CheckSchema(table *Table) error {
	if table == nil {
		return &SchemaError{Missing: slices.Clone(RequiredColumns)}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &SchemaError{Missing: missing}
}
