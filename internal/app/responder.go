package app

import (
	"context"
	"sync"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	ws "github.com/SirGarbage/Bitirme-Projesi/internal/websocket"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// lazyResponder forwards websocket dashboard requests to a responder
// bound after the hub is created
type lazyResponder struct {
	mu     sync.RWMutex
	target ws.Responder
}

func (l *lazyResponder) bind(target ws.Responder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = target
}

func (l *lazyResponder) BuildView(ctx context.Context, req domain.DashboardRequest) (*domain.DashboardView, error) {
	l.mu.RLock()
	target := l.target
	l.mu.RUnlock()

	if target == nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSourceUnavailable, "dashboard is not ready", nil)
	}
	return target.BuildView(ctx, req)
}
