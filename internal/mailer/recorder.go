package mailer

import "sync"

type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// Recorder is a Mailer that keeps every message in memory instead of
// sending it. Tests use it to assert on ops alerts.
type Recorder struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(recipient, templateFile string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.sent = append(r.sent, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// FailWith makes every following Send return err. A nil err restores
// normal recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Email(nil), r.sent...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = nil
	r.err = nil
}
