package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hotelapp/internal/model"
	"hotelapp/internal/store"
)

const (
	roomLocksCollection       = "roomLocks"
	serviceRequestsCollection = "serviceRequests"
)

// Ledger отвечает за создание, отмену и чтение бронирований. Само хранение
// принадлежит документному хранилищу, Ledger — фасад над ним.
type Ledger struct {
	store    store.Store
	resolver *Resolver
	// now подменяется в тестах.
	now func() time.Time
}

// NewLedger создает журнал бронирований поверх хранилища и резолвера.
func NewLedger(st store.Store, resolver *Resolver) *Ledger {
	return &Ledger{store: st, resolver: resolver, now: time.Now}
}

// CreateBooking подбирает свободный номер и создает подтвержденное
// бронирование. Против параллельных заявок на тот же номер подбор защищен
// посуточными документами-замками: номер достается тому, чей пакет замков
// записался первым, остальные переходят к следующему кандидату.
func (l *Ledger) CreateBooking(ctx context.Context, userID string, room model.Room, startDate, endDate time.Time, numberOfGuests int, totalPrice float64, specialRequests string) (string, error) {
	candidates, err := l.resolver.AvailableRoomNumbers(ctx, room, startDate, endDate)
	if err != nil {
		return "", err
	}

	for len(candidates) > 0 {
		i := l.resolver.pick(len(candidates))
		number := candidates[i]

		err := l.acquireNightLocks(ctx, room.ID, number, startDate, endDate)
		if errors.Is(err, store.ErrAlreadyExists) {
			// Номер успели занять параллельно, пробуем следующий.
			candidates = append(candidates[:i], candidates[i+1:]...)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		b := model.Booking{
			UserID:          userID,
			RoomID:          room.ID,
			RoomName:        room.Name,
			RoomNumber:      number,
			RoomImageURL:    room.ImageURL,
			StartDate:       startDate,
			EndDate:         endDate,
			NumberOfGuests:  numberOfGuests,
			Status:          model.StatusConfirmed,
			TotalPrice:      totalPrice,
			SpecialRequests: specialRequests,
		}
		id, err := l.store.Add(ctx, bookingsCollection, b.Data())
		if err != nil {
			l.releaseNightLocks(ctx, room.ID, number, startDate, endDate)
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return id, nil
	}
	return "", ErrNoAvailableRooms
}

// CancelBooking переводит бронирование в статус "cancelled". Отмена разрешена
// только до даты заезда, проверка выполняется здесь, в точке изменения, а не
// на стороне вызывающего. Повторная отмена — успешный no-op.
func (l *Ledger) CancelBooking(ctx context.Context, bookingID string) error {
	b, err := l.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status == model.StatusCancelled {
		return nil
	}
	if !b.StartDate.After(l.now()) {
		return ErrCancellationNotAllowed
	}

	err = l.store.Update(ctx, bookingsCollection, bookingID, map[string]interface{}{
		"status": model.StatusCancelled,
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Освобождаем суточные замки, чтобы номер снова был доступен.
	l.releaseNightLocks(ctx, b.RoomID, b.RoomNumber, b.StartDate, b.EndDate)
	return nil
}

// GetBooking возвращает бронирование по идентификатору.
func (l *Ledger) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	doc, err := l.store.Get(ctx, bookingsCollection, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return model.BookingFromDocument(doc)
}

// FetchUserBookings возвращает бронирования пользователя, свежие первыми.
// Поврежденные документы пропускаются, остальные отдаются как есть.
func (l *Ledger) FetchUserBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	docs, err := l.store.Query(ctx, bookingsCollection, []store.Filter{
		{Path: "userId", Op: "==", Value: userID},
	}, &store.Order{Path: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	bookings := make([]model.Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := model.BookingFromDocument(doc)
		if err != nil {
			log.Printf("Пропущено поврежденное бронирование: %v", err)
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// RequestService создает заявку на услугу со статусом "pending". Состояние
// бронирования не проверяется: заявка на отмененное бронирование допускается,
// как и в мобильном приложении.
func (l *Ledger) RequestService(ctx context.Context, serviceType, notes, bookingID, userID string) error {
	req := model.ServiceRequest{
		Type:      serviceType,
		Notes:     notes,
		Status:    model.StatusPending,
		BookingID: bookingID,
		UserID:    userID,
	}
	if _, err := l.store.Add(ctx, serviceRequestsCollection, req.Data()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *Ledger) acquireNightLocks(ctx context.Context, roomID, number string, startDate, endDate time.Time) error {
	ids := nightLockIDs(roomID, number, startDate, endDate)
	docs := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, store.Document{
			ID: id,
			Data: map[string]interface{}{
				"roomId":     roomID,
				"roomNumber": number,
				"createdAt":  store.ServerTimestamp,
			},
		})
	}
	return l.store.BatchCreate(ctx, roomLocksCollection, docs)
}

func (l *Ledger) releaseNightLocks(ctx context.Context, roomID, number string, startDate, endDate time.Time) {
	for _, id := range nightLockIDs(roomID, number, startDate, endDate) {
		if err := l.store.Delete(ctx, roomLocksCollection, id); err != nil {
			log.Printf("Не удалось освободить замок %s: %v", id, err)
		}
	}
}

// nightLockIDs — идентификаторы суточных замков номера на диапазон дат.
// День выезда включается: правило пересечения с включенными границами
// блокирует заезд в день чужого выезда.
func nightLockIDs(roomID, number string, startDate, endDate time.Time) []string {
	day := startDate.UTC().Truncate(24 * time.Hour)
	last := endDate.UTC().Truncate(24 * time.Hour)

	var ids []string
	for !day.After(last) {
		ids = append(ids, fmt.Sprintf("%s_%s_%s", roomID, number, day.Format("2006-01-02")))
		day = day.Add(24 * time.Hour)
	}
	return ids
}
