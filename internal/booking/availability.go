package booking

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"hotelapp/internal/model"
	"hotelapp/internal/store"
)

const bookingsCollection = "bookings"

// Resolver подбирает свободный физический номер для типа комнаты и диапазона
// дат, сверяясь с подтвержденными бронированиями.
type Resolver struct {
	store store.Store
	// pick выбирает индекс из n кандидатов. По умолчанию случайный:
	// какой именно свободный номер достанется гостю, не важно.
	pick func(n int) int
}

// NewResolver создает резолвер поверх хранилища.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st, pick: rand.Intn}
}

// FindAvailableRoomNumber возвращает свободный номер из пула типа комнаты
// или ErrNoAvailableRooms, если на эти даты все занято.
func (r *Resolver) FindAvailableRoomNumber(ctx context.Context, room model.Room, startDate, endDate time.Time) (string, error) {
	numbers, err := r.AvailableRoomNumbers(ctx, room, startDate, endDate)
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", ErrNoAvailableRooms
	}
	return numbers[r.pick(len(numbers))], nil
}

// AvailableRoomNumbers возвращает все свободные номера пула в порядке,
// в котором они перечислены в карточке типа комнаты.
func (r *Resolver) AvailableRoomNumbers(ctx context.Context, room model.Room, startDate, endDate time.Time) ([]string, error) {
	if !startDate.Before(endDate) {
		return nil, ErrInvalidDates
	}

	// Берем все подтвержденные бронирования этого типа комнаты.
	docs, err := r.store.Query(ctx, bookingsCollection, []store.Filter{
		{Path: "roomId", Op: "==", Value: room.ID},
		{Path: "status", Op: "==", Value: model.StatusConfirmed},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	available := make(map[string]bool, len(room.RoomNumbers))
	for _, number := range room.RoomNumbers {
		available[number] = true
	}

	// Номера с пересечением по датам выбывают из кандидатов.
	for _, doc := range docs {
		b, err := model.BookingFromDocument(doc)
		if err != nil {
			log.Printf("Пропущено поврежденное бронирование: %v", err)
			continue
		}
		if overlaps(startDate, endDate, b.StartDate, b.EndDate) {
			delete(available, b.RoomNumber)
		}
	}

	numbers := make([]string, 0, len(available))
	for _, number := range room.RoomNumbers {
		if available[number] {
			numbers = append(numbers, number)
		}
	}
	return numbers, nil
}

// overlaps — проверка пересечения диапазонов с включенными границами:
// совпадение дня выезда с днем заезда тоже считается конфликтом.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
