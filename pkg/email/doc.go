// Package email provides transactional email delivery with a Postmark
// client for production and a filesystem sender for local development.
//
//	sender := email.MustNewPostmarkSender(email.Config{
//		PostmarkServerToken:  serverToken,
//		PostmarkAccountToken: accountToken,
//		SenderEmail:          "noreply@example.com",
//		SupportEmail:         "support@example.com",
//	})
//
//	err := sender.Send(ctx, email.Message{
//		To:       "user@example.com",
//		Subject:  "New investor interest",
//		BodyHTML: "<p>An investor wants to connect.</p>",
//		Tag:      "investor_interest",
//	})
//
// During development, NewDevSender("./tmp/emails") writes each message to
// disk instead of sending it.
package email
