package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"anoa.com/socialgraph/internal/entity"
	notifDto "anoa.com/socialgraph/internal/modules/notification/dto"
)

const excerptLimit = 140

type emailTemplate struct {
	subject string
	body    string
}

// emailTemplates has one entry per notification type; %s is the sender.
var emailTemplates = map[entity.NotificationType]emailTemplate{
	entity.NotificationFollowRequest:  {"%s wants to follow you", "%s sent you a follow request. Review it from your follow requests page."},
	entity.NotificationFollowAccepted: {"%s accepted your follow request", "%s accepted your follow request. You can now see their posts."},
	entity.NotificationNewFollower:    {"%s started following you", "%s is now following you."},
	entity.NotificationThreadLike:     {"%s liked your thread", "%s liked your thread."},
	entity.NotificationReplyLike:      {"%s liked your reply", "%s liked your reply."},
	entity.NotificationThreadReply:    {"%s replied to your thread", "%s replied to your thread."},
	entity.NotificationThreadRepost:   {"%s reposted your thread", "%s reposted your thread."},
	entity.NotificationMention:        {"%s mentioned you", "%s mentioned you in a post."},
}

var fallbackTemplate = emailTemplate{"New notification", "You have a new notification from %s."}

// BuildEmailMessage renders the email for a notification type. Unknown
// types get a generic message. extra, when set, is quoted under the body.
func BuildEmailMessage(t entity.NotificationType, senderName, extra string) notifDto.EmailContent {
	if strings.TrimSpace(senderName) == "" {
		senderName = "Someone"
	}

	tpl, ok := emailTemplates[t]
	if !ok {
		tpl = fallbackTemplate
	}

	subject := tpl.subject
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, senderName)
	}
	message := fmt.Sprintf(tpl.body, senderName)
	if extra = strings.TrimSpace(extra); extra != "" {
		message += "\n\n\"" + extra + "\""
	}

	return notifDto.EmailContent{Subject: subject, Message: message}
}

// markupPattern matches complete tags and comments. Any other '<' is text.
var markupPattern = regexp.MustCompile(`<!--[\s\S]*?-->|</?[a-zA-Z][a-zA-Z0-9-]*(?:\s[^<>]*)?/?>`)

// plainText strips markup so mentions inside tags or attributes are not
// picked up. Stray '<' are escaped first; the sanitizer would otherwise read
// "a<b ..." as an unterminated tag and drop the rest of the text.
func (s *notificationService) plainText(content string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(escapeStrayBrackets(content)))
}

func escapeStrayBrackets(content string) string {
	var b strings.Builder
	last := 0
	for _, loc := range markupPattern.FindAllStringIndex(content, -1) {
		b.WriteString(strings.ReplaceAll(content[last:loc[0]], "<", "&lt;"))
		b.WriteString(content[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(content[last:], "<", "&lt;"))
	return b.String()
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptLimit]) + "..."
}
