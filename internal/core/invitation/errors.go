package invitation

import "errors"

var (
	// ErrInvitationNotFound は招待が存在しない場合に返却されます。
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrTokenNotFound はトークンに対応する招待が存在しない場合に返却されます。
	ErrTokenNotFound = errors.New("invitation token not found")
	// ErrTokenExpired は期限切れトークンの使用時に返却されます。
	ErrTokenExpired = errors.New("invitation token expired")
	// ErrTokenAlreadyUsed は受理済みトークンの再使用時に返却されます。
	ErrTokenAlreadyUsed = errors.New("invitation token already used")
	// ErrInvitationNotPending は pending 以外の招待への操作時に返却されます。
	ErrInvitationNotPending = errors.New("invitation is not pending")
	// ErrActiveInvitationExists は同一メールに有効な招待が既にある場合に返却されます。
	ErrActiveInvitationExists = errors.New("an active invitation already exists for this email")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidName は名前が不正な場合に返却されます。
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
)
