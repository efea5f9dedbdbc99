package logic

import "errors"

// ErrNoInput is returned when a request carries neither fingerprintData nor
// backendData.collectedData.
var ErrNoInput = errors.New("missing fingerprintData or backendData.collectedData")
