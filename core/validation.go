// Copyright 2025 Hoard Authors
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

import "fmt"

// ValidateContentItem validates a ContentItem according to domain rules.
//
// Validation rules:
//   - Type must be one of the stored content types (never TypeAll)
//   - Status must be valid
//   - StatusFailed requires ErrorMessage
//
// NOT validated (populated by the pipeline):
//   - CompletedAt (zero until completion)
//   - ID (0 is valid from database sequences)
func ValidateContentItem(item *ContentItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidContentItem)
	}

	if err := ValidateContentType(item.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, err)
	}

	if err := ValidateStatus(item.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, err)
	}

	if item.Status == StatusFailed && item.ErrorMessage == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, ErrMissingErrorMessage)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - StartOffset must be strictly before EndOffset
//
// NOT validated (populated later):
//   - Vector (empty until embedded)
//   - ID (0 is valid from database sequences)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.StartOffset >= chunk.EndOffset {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidOffsets)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	return nil
}

// ValidateContentType validates that a ContentType names a storable type.
func ValidateContentType(t ContentType) error {
	switch t {
	case TypeImage, TypeWebpage, TypeVideo, TypeDocument:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidContentType, t)
}

// ValidateStatus validates that a Status has a known value.
func ValidateStatus(s Status) error {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ParseContentType converts a user-supplied string into a ContentType.
// The wildcard "all" is accepted; an empty string defaults to it.
func ParseContentType(s string) (ContentType, error) {
	if s == "" {
		return TypeAll, nil
	}
	t := ContentType(s)
	if t == TypeAll {
		return t, nil
	}
	if err := ValidateContentType(t); err != nil {
		return "", err
	}
	return t, nil
}
