package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/account"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/document"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/invitation"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/onboarding"
)

// respondError はコアのエラーを HTTP ステータスとエラーエンベロープへ変換します。
// フィールド単位の検証エラーは {error, errors:[{field,message}]} の形で返します。
func respondError(c *gin.Context, err error) {
	if fieldErrs, ok := onboarding.AsFieldErrors(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"errors": fieldErrs,
		})
		return
	}

	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, invitation.ErrInvitationNotFound),
		errors.Is(err, invitation.ErrTokenNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, document.ErrDocumentNotFound),
		errors.Is(err, onboarding.ErrDraftNotFound),
		errors.Is(err, onboarding.ErrFormNotFound):
		return http.StatusNotFound

	case errors.Is(err, invitation.ErrActiveInvitationExists),
		errors.Is(err, employee.ErrWorkEmailAlreadyExists),
		errors.Is(err, employee.ErrNPIAlreadyExists),
		errors.Is(err, employee.ErrLicenseAlreadyExists),
		errors.Is(err, account.ErrEmailAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, invitation.ErrTokenExpired),
		errors.Is(err, invitation.ErrTokenAlreadyUsed),
		errors.Is(err, invitation.ErrInvitationNotPending),
		errors.Is(err, invitation.ErrInvalidEmail),
		errors.Is(err, invitation.ErrInvalidName),
		errors.Is(err, invitation.ErrInvalidID),
		errors.Is(err, employee.ErrAlreadyApproved),
		errors.Is(err, employee.ErrAlreadyRejected),
		errors.Is(err, employee.ErrNotPendingApproval),
		errors.Is(err, employee.ErrCommentsRequired),
		errors.Is(err, employee.ErrReasonRequired),
		errors.Is(err, employee.ErrDocumentsIncomplete),
		errors.Is(err, employee.ErrLicensesExpired),
		errors.Is(err, employee.ErrBackgroundCheckIncomplete),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, onboarding.ErrUnknownStep),
		errors.Is(err, onboarding.ErrAlreadySubmitted),
		errors.Is(err, onboarding.ErrNotSubmittable),
		errors.Is(err, onboarding.ErrDocumentsIncomplete),
		errors.Is(err, onboarding.ErrFormsIncomplete),
		errors.Is(err, document.ErrInvalidType),
		errors.Is(err, document.ErrInvalidFileName),
		errors.Is(err, document.ErrFileTooLarge),
		errors.Is(err, document.ErrDisallowedContentType),
		errors.Is(err, document.ErrDescriptionTooLong),
		errors.Is(err, document.ErrUnsafeDescription):
		return http.StatusBadRequest

	case errors.Is(err, document.ErrStorageFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
