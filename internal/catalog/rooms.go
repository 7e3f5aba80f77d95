// Package catalog читает справочник типов номеров. Каталог ведется внешней
// системой, здесь он доступен только на чтение.
package catalog

import (
	"context"
	"fmt"

	"hotelapp/internal/model"
	"hotelapp/internal/store"
)

const roomsCollection = "rooms"

// Service — доступ к каталогу номеров.
type Service struct {
	store store.Store
}

// NewService создает сервис каталога поверх хранилища.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// FetchRooms возвращает все типы номеров.
func (s *Service) FetchRooms(ctx context.Context) ([]model.Room, error) {
	docs, err := s.store.Query(ctx, roomsCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("каталог номеров: %w", err)
	}
	rooms := make([]model.Room, 0, len(docs))
	for _, doc := range docs {
		rooms = append(rooms, model.RoomFromDocument(doc))
	}
	return rooms, nil
}

// GetRoom возвращает тип номера по идентификатору. Отсутствие карточки
// транслируется как store.ErrNotFound.
func (s *Service) GetRoom(ctx context.Context, id string) (model.Room, error) {
	doc, err := s.store.Get(ctx, roomsCollection, id)
	if err != nil {
		return model.Room{}, err
	}
	return model.RoomFromDocument(doc), nil
}
