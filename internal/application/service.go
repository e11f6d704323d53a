package application

import (
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store       store.Store
	invalidator invalidate.Invalidator
	log         *zap.Logger
}

func New(s store.Store, invalidator invalidate.Invalidator, log *zap.Logger) *Service {
	if invalidator == nil {
		invalidator = invalidate.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, invalidator: invalidator, log: log}
}
