// Package mailer sends operational emails rendered from the embedded
// templates directory.
package mailer

// Mailer renders templateFile with data and sends the result to recipient.
type Mailer interface {
	Send(recipient, templateFile string, data any) error
}
