package model

import "errors"

// ErrInvalidMonth indicates a month key not in YYYY-MM form.
var ErrInvalidMonth = errors.New("month must be formatted as YYYY-MM")
