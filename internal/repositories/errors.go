package repositories

import (
	"errors"

	intdb "seatengine/internal/db"
	"seatengine/internal/domain"
)

var errNoDB = errors.New("database not connected")

// storageErr classifies a driver error. Domain errors pass through.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainErr(err) {
		return err
	}
	if intdb.IsRetryable(err) || errors.Is(err, errNoDB) {
		return domain.StorageUnavailableError{Op: op, Err: err}
	}
	if intdb.IsDuplicateKey(err) {
		return domain.ConflictError{Resource: "booking", Msg: "duplicate key", Err: err}
	}
	return domain.StorageUnavailableError{Op: op, Err: err}
}

func isDomainErr(err error) bool {
	return domain.IsValidation(err) ||
		domain.IsSeatsUnavailable(err) ||
		domain.IsNotFound(err) ||
		domain.IsConflict(err) ||
		domain.IsUnauthorized(err) ||
		domain.IsStorageUnavailable(err) ||
		domain.IsInternal(err)
}
