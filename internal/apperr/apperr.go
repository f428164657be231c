// Package apperr classifies failures into a small set of kinds and turns them
// into short Turkish messages that are safe to show to users. Backend codes,
// table names and column names never appear in those messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	UniquenessViolation
	ForeignKeyViolation
	PermissionDenied
	PolicyError
	MissingRequiredField
	MalformedInput
	NotFound
	Unauthenticated
	InvalidState
)

var kindNames = map[Kind]string{
	Unknown:              "unknown",
	UniquenessViolation:  "uniqueness_violation",
	ForeignKeyViolation:  "foreign_key_violation",
	PermissionDenied:     "permission_denied",
	PolicyError:          "policy_error",
	MissingRequiredField: "missing_required_field",
	MalformedInput:       "malformed_input",
	NotFound:             "not_found",
	Unauthenticated:      "unauthenticated",
	InvalidState:         "invalid_state",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Backend codes, using the SQLSTATE vocabulary of the original hosted store.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeInsufficientPriv    = "42501"
	CodeJWTRejected         = "PGRST301"
	CodePolicyRecursion     = "42P17"
	CodeNotNullViolation    = "23502"
	CodeInvalidText         = "22P02"
)

// FromCode maps a machine-readable backend code to a Kind.
func FromCode(code string) Kind {
	switch code {
	case CodeUniqueViolation:
		return UniquenessViolation
	case CodeForeignKeyViolation:
		return ForeignKeyViolation
	case CodeInsufficientPriv, CodeJWTRejected:
		return PermissionDenied
	case CodePolicyRecursion:
		return PolicyError
	case CodeNotNullViolation:
		return MissingRequiredField
	case CodeInvalidText:
		return MalformedInput
	}
	return Unknown
}

var kindMessages = map[Kind]string{
	UniquenessViolation:  "Bu değer zaten kullanılıyor.",
	ForeignKeyViolation:  "İlişkili kayıt bulunamadı.",
	PermissionDenied:     "Bu işlem için yetkiniz yok.",
	PolicyError:          "Bir yetkilendirme hatası oluştu. Lütfen tekrar deneyin.",
	MissingRequiredField: "Zorunlu bir alan eksik.",
	MalformedInput:       "Geçersiz veri formatı.",
	NotFound:             "Kayıt bulunamadı.",
	Unauthenticated:      "Bu işlem için giriş yapmalısınız.",
	InvalidState:         "Bu işlem kaydın mevcut durumunda yapılamaz.",
}

// GenericMessage is shown for anything that is not classified.
const GenericMessage = "İşlem başarısız oldu. Lütfen tekrar deneyin."

// Error is a classified failure. Msg, when set, overrides the kind's default
// user message. Err is kept for logs only.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Code != "":
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Code, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a domain error with its own message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WithCode wraps err as a backend failure identified by code.
func WithCode(code string, err error) *Error {
	return &Error{Kind: FromCode(code), Code: code, Err: err}
}

// Wrap classifies err under kind without a custom message.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

var (
	ErrNotFound           = New(NotFound, "Kayıt bulunamadı.")
	ErrForbidden          = New(PermissionDenied, "Bu işlem için yetkiniz yok.")
	ErrUnauthenticated    = New(Unauthenticated, "Bu işlem için giriş yapmalısınız.")
	ErrAlreadyApplied     = New(UniquenessViolation, "Bu çağrıya zaten başvurdunuz.")
	ErrCallNotOpen        = New(InvalidState, "Bu çağrı şu anda başvuru kabul etmiyor.")
	ErrInvalidTransition  = New(InvalidState, "Bu durum geçişine izin verilmiyor.")
	ErrOwnProject         = New(InvalidState, "Kendi projenizin çağrısına başvuramazsınız.")
	ErrInvalidCredentials = New(Unauthenticated, "Giriş yapılamadı. Tekrar deneyin.")
	ErrEmailNotVerified   = New(Unauthenticated, "Lütfen önce e-posta adresinizi doğrulayın.")
	ErrEmailTaken         = New(UniquenessViolation, "Bu e-posta adresi zaten kayıtlı.")
	ErrSlugTaken          = New(UniquenessViolation, "Bu adrese sahip bir proje zaten var.")
)

// Invalid reports a user input problem with a specific message.
func Invalid(msg string) *Error {
	return New(MalformedInput, msg)
}

// Missing reports an absent required field with a specific message.
func Missing(msg string) *Error {
	return New(MissingRequiredField, msg)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err and whether err was
// classified. Unclassified errors get GenericMessage and should be logged by
// the caller.
func Message(err error) (string, bool) {
	if err == nil {
		return "", true
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind == Unknown {
		return GenericMessage, false
	}
	if e.Msg != "" {
		return e.Msg, true
	}
	return kindMessages[e.Kind], true
}
