package mocks

import "sync"

// MockMailer запоминает отправленные письма вместо реальной отправки
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

// LastTo возвращает адресата последнего письма ("" если писем не было)
func (m *MockMailer) LastTo() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].To
}
