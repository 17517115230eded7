package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock indicates the requested quantity exceeds live stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateItem indicates the product is already in the cart.
	ErrDuplicateItem = errors.New("item already in cart")
	// ErrInvalidQuantity indicates a quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrEmptyCart indicates checkout was attempted with no cart or an empty one.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingCheckoutData indicates delivery address or payment method is absent.
	ErrMissingCheckoutData = errors.New("missing delivery address or payment method")
	// ErrInvalidStatus indicates a status outside the caller's allowed set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrForbidden indicates the actor lacks rights over the target resource.
	ErrForbidden = errors.New("forbidden")
)
