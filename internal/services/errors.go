// Package services implements the business logic of the marketplace: the
// product lifecycle state machine, chat rooms and messages, university email
// verification, user registration, and categories.
//
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers. Each
// sentinel belongs to one of four classes — not-found, forbidden, invalid
// state, or validation — and the class predicates below let the handler layer
// map any service error to an HTTP status without enumerating sentinels.
package services

import "errors"

// Not-found errors: the addressed entity does not exist.
var (
	// ErrUserNotFound indicates the addressed user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound indicates the addressed product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrCategoryNotFound indicates the addressed category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrRoomNotFound indicates the addressed chat room does not exist.
	ErrRoomNotFound = errors.New("chat room not found")

	// ErrImageNotFound indicates the addressed product image does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrCodeNotFound indicates no verification record matches the given
	// email and code pair.
	ErrCodeNotFound = errors.New("verification code not found")
)

// Forbidden errors: the entity exists but the caller may not act on it.
var (
	// ErrNotSeller is returned when a mutation reserved for the product's
	// seller is attempted by someone else.
	ErrNotSeller = errors.New("requester is not the seller of this product")

	// ErrNotParticipant is returned when a user who is neither the room's
	// buyer nor the product's seller touches a chat room.
	ErrNotParticipant = errors.New("requester is not a participant of this room")

	// ErrOwnProduct is returned when a seller tries to open a buyer chat
	// room on their own listing.
	ErrOwnProduct = errors.New("cannot open a chat room on your own product")
)

// Invalid-state errors: the operation is not legal in the entity's current
// lifecycle state.
var (
	// ErrProductCompleted is returned when a completed product is reserved
	// again; COMPLETED is terminal.
	ErrProductCompleted = errors.New("product transaction already completed")

	// ErrProductNotReserved is returned when completion is attempted on a
	// product that is not in the reserved state.
	ErrProductNotReserved = errors.New("product is not reserved")

	// ErrCodeExpired is returned when a verification code is confirmed after
	// its expiry.
	ErrCodeExpired = errors.New("verification code expired")
)

// Validation errors: the request itself is malformed.
var (
	// ErrEmptyTitle is returned when a product is created with a blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrTitleTooLong is returned when a product title exceeds the limit.
	ErrTitleTooLong = errors.New("title too long")

	// ErrEmptyDescription is returned when a product has no description.
	ErrEmptyDescription = errors.New("description is empty")

	// ErrNegativePrice is returned when a product price is below zero.
	ErrNegativePrice = errors.New("price must be zero or positive")

	// ErrEmptyContent is returned when a chat message has no content.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrContentTooLong is returned when a chat message exceeds the
	// configured rune limit.
	ErrContentTooLong = errors.New("message content too long")

	// ErrNotAcademicEmail is returned when a verification request carries an
	// address outside the accepted academic domains.
	ErrNotAcademicEmail = errors.New("not a university email address")

	// ErrEmptyFileName is returned when an upload grant is requested without
	// a file name.
	ErrEmptyFileName = errors.New("file name is empty")
)

var (
	notFoundErrs = []error{
		ErrUserNotFound, ErrProductNotFound, ErrCategoryNotFound,
		ErrRoomNotFound, ErrImageNotFound, ErrCodeNotFound,
	}
	forbiddenErrs  = []error{ErrNotSeller, ErrNotParticipant, ErrOwnProduct}
	invalidErrs    = []error{ErrProductCompleted, ErrProductNotReserved, ErrCodeExpired}
	validationErrs = []error{
		ErrEmptyTitle, ErrTitleTooLong, ErrEmptyDescription, ErrNegativePrice,
		ErrEmptyContent, ErrContentTooLong, ErrNotAcademicEmail, ErrEmptyFileName,
	}
)

func isAny(err error, set []error) bool {
	for _, e := range set {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool { return isAny(err, notFoundErrs) }

// IsForbidden reports whether err names an ownership or participation breach.
func IsForbidden(err error) bool { return isAny(err, forbiddenErrs) }

// IsInvalidState reports whether err names an illegal lifecycle transition.
func IsInvalidState(err error) bool { return isAny(err, invalidErrs) }

// IsValidation reports whether err names a malformed request.
func IsValidation(err error) bool { return isAny(err, validationErrs) }
