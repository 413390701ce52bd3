package batch

import "errors"

// Sentinel errors for the batch service layer.
var (
	ErrNotFound = errors.New("batch not found")
	ErrEmptyCSV = errors.New("csv content is empty")
)
