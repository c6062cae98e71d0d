package model

import "errors"

var (
	ErrWorkNotFound = errors.New("work not found")

	// ErrNoEdition means the pool's identifier has no bibliographic record
	// at all. Recoverable; retry after more ingestion.
	ErrNoEdition = errors.New("no edition for license pool")

	// ErrInsufficientMetadata means a work cannot be created yet because
	// title or author is missing. Recoverable; retry after more ingestion.
	ErrInsufficientMetadata = errors.New("edition lacks title or author")

	// ErrWorkMerged means the work has been retired into another.
	ErrWorkMerged = errors.New("work was merged into another work")
)
