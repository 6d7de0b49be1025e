package pushsvc

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/students-gateway/gateway/core"
)

type consoleService struct {
	std *log.Logger
}

var _ core.PushService = (*consoleService)(nil)

// NewConsoleService returns a push service printing the messages to std; used in development.
func NewConsoleService(std *log.Logger) *consoleService {
	return &consoleService{std: std}
}

func (svc consoleService) Notify(_ context.Context, msg core.PushMessage) bool {
	if !msg.HasRecipients() {
		return false
	}
	svc.std.Printf("Push to: %s\nTitle: %s\n\n%s\n", strings.Join(msg.Tokens, ", "), msg.Title, msg.Body)
	return true
}

// ServiceMock records the notified messages and answers with Accept.
type ServiceMock struct {
	Accept bool

	mu       sync.Mutex
	messages []core.PushMessage
}

var _ core.PushService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{Accept: true}
}

func (svc *ServiceMock) Notify(_ context.Context, msg core.PushMessage) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = append(svc.messages, msg)
	return svc.Accept
}

// Sent returns a copy of the notified messages.
func (svc *ServiceMock) Sent() []core.PushMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.PushMessage(nil), svc.messages...)
}
