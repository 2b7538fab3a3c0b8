// internal/app/text.go
package app

import "fmt"

const (
	replyPreviewLimit = 100
	titlePreviewLimit = 25
	ellipsis          = "..."
)

// truncate shortens s to limit runes, ending with an ellipsis, when it is
// longer than limit. Counting runes keeps multi-byte characters whole.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	keep := limit - len([]rune(ellipsis))
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + ellipsis
}

// ReplyPreview is the reply content as shown in a push body.
func ReplyPreview(content string) string {
	return truncate(content, replyPreviewLimit)
}

// TitlePreview is a proposal title short enough for a push title.
func TitlePreview(title string) string {
	return truncate(title, titlePreviewLimit)
}

// Notification texts. Every fan-out uses one of these so in-app records and
// pushes carry the same wording.

func articleText(title string) (string, string) {
	return "New Article Available", fmt.Sprintf("\"%s\" has been published. Check it out!", title)
}

func newPollText(title string) (string, string) {
	return "New Poll Available", fmt.Sprintf("A new poll \"%s\" is now available for voting.", title)
}

func pollDeadlineText(title string) (string, string) {
	return "Poll Closing Soon", fmt.Sprintf("The poll \"%s\" will close in 24 hours.", title)
}

func newEventText(title string) (string, string) {
	return "New Event Added", fmt.Sprintf("\"%s\" has been added to the calendar.", title)
}

func eventReminderText(title string) (string, string) {
	return "Event Reminder", fmt.Sprintf("\"%s\" will start in 24 hours.", title)
}

func milestoneText(title string, milestone int) (string, string) {
	return "Endorsement Milestone Reached",
		fmt.Sprintf("Your proposal \"%s\" has reached %d%% of required endorsements!", title, milestone)
}

func completionText(title string) (string, string) {
	return "Proposal Fully Endorsed", fmt.Sprintf("Your proposal \"%s\" has received all required endorsements!", title)
}

func replyText(author, proposalTitle, preview string) (string, string) {
	return fmt.Sprintf("Reply from %s on \"%s\"", author, TitlePreview(proposalTitle)), fmt.Sprintf("\"%s\"", preview)
}
