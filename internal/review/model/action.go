package model

import (
	"database/sql/driver"
	"fmt"
)

// ActionType tags what a comment records. The set is closed: decoding an
// unknown value from storage is an error.
type ActionType string

const (
	ActionComment     ActionType = "comment"
	ActionApproved    ActionType = "approved"
	ActionRejected    ActionType = "rejected"
	ActionResubmitted ActionType = "resubmitted"
)

// ParseActionType validates s.
func ParseActionType(s string) (ActionType, error) {
	switch a := ActionType(s); a {
	case ActionComment, ActionApproved, ActionRejected, ActionResubmitted:
		return a, nil
	}
	return "", fmt.Errorf("unknown comment action type %q", s)
}

// Scan implements sql.Scanner.
func (a *ActionType) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return fmt.Errorf("comment action type is NULL")
	default:
		return fmt.Errorf("cannot scan %T into ActionType", src)
	}
	parsed, err := ParseActionType(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer.
func (a ActionType) Value() (driver.Value, error) {
	if _, err := ParseActionType(string(a)); err != nil {
		return nil, err
	}
	return string(a), nil
}
