package employee

import "errors"

var (
	ErrEmployeeNotFound          = errors.New("employee: not found")
	ErrInvalidID                 = errors.New("employee: invalid id")
	ErrInvalidStatus             = errors.New("employee: invalid status")
	ErrWorkEmailAlreadyExists    = errors.New("employee: work email already exists")
	ErrNPIAlreadyExists          = errors.New("employee: npi already exists")
	ErrLicenseAlreadyExists      = errors.New("employee: license number already exists")
	ErrAlreadyApproved           = errors.New("employee: already approved")
	ErrAlreadyRejected           = errors.New("employee: already rejected")
	ErrNotPendingApproval        = errors.New("employee: not pending approval")
	ErrCommentsRequired          = errors.New("employee: approval comments are required")
	ErrReasonRequired            = errors.New("employee: rejection reason is required")
	ErrDocumentsIncomplete       = errors.New("employee: required documents are incomplete")
	ErrLicensesExpired           = errors.New("employee: one or more licenses are expired")
	ErrBackgroundCheckIncomplete = errors.New("employee: background check is not complete")
)
