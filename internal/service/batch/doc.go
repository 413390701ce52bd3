// Package batch implements upload-batch lifecycle management.
//
// The service layer owns CSV ingestion into batches, batch history and
// details, deletion, and the dashboard statistics derived from batches. It
// depends on the repository interface defined in this package and should
// never import from api/.
//
// Repository implementations live in repository/postgres/.
package batch
