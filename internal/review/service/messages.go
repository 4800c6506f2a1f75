package service

import "fmt"

func requestMessage(actor, title, note string) string {
	msg := fmt.Sprintf("%s requested your review of %q", actor, title)
	if note != "" {
		msg += ": " + note
	}
	return msg
}

func reminderMessage(actor, title string) string {
	return fmt.Sprintf("Reminder from %s: %q is still waiting for your review", actor, title)
}

func approvedMessage(actor, title, note string) string {
	msg := fmt.Sprintf("%s approved %q", actor, title)
	if note != "" {
		msg += ": " + note
	}
	return msg
}

func rejectedMessage(actor, title, reason string) string {
	return fmt.Sprintf("%s returned %q: %s", actor, title, reason)
}

func resubmittedMessage(actor, title string) string {
	return fmt.Sprintf("%s revised and resubmitted %q", actor, title)
}

func guestName(name string) string {
	return name + " (guest)"
}

// History entries for transitions that carry no user text.
const (
	historyRequested   = "Review requested"
	historyApproved    = "Approved"
	historyResubmitted = "Revised and resubmitted for review"
	historyShared      = "Public link shared"
	historyLocked      = "Review locked"
	historyUnlocked    = "Review unlocked"
)
