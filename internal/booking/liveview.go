package booking

import (
	"context"
	"fmt"
	"log"
	"sort"

	"hotelapp/internal/model"
	"hotelapp/internal/store"
)

// Feed — живой список бронирований пользователя. Каждый снимок хранилища
// заменяет рабочий набор целиком, после чего список заново собирается:
// дубликаты по идентификатору схлопываются, порядок — свежие первыми.
type Feed struct {
	sub     store.Subscription
	updates chan []model.Booking
	errs    chan error
}

// WatchUserBookings открывает живую подписку на бронирования пользователя.
func (l *Ledger) WatchUserBookings(ctx context.Context, userID string) (*Feed, error) {
	sub, err := l.store.Subscribe(ctx, bookingsCollection, []store.Filter{
		{Path: "userId", Op: "==", Value: userID},
	}, &store.Order{Path: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	f := &Feed{
		sub:     sub,
		updates: make(chan []model.Booking, 1),
		errs:    make(chan error, 1),
	}
	go f.run()
	return f, nil
}

// Updates отдает очередные версии списка. Канал закрывается после Stop.
func (f *Feed) Updates() <-chan []model.Booking { return f.updates }

// Errors отдает ошибки доставки. Ошибка не сбрасывает список: последнее
// корректное состояние остается в силе.
func (f *Feed) Errors() <-chan error { return f.errs }

// Stop завершает подписку. Новые снимки после возврата не доставляются.
func (f *Feed) Stop() { f.sub.Stop() }

func (f *Feed) run() {
	defer close(f.updates)
	defer close(f.errs)

	for snap := range f.sub.Snapshots() {
		if snap.Err != nil {
			// Сообщаем один раз и ждем следующий снимок.
			select {
			case f.errs <- fmt.Errorf("%w: %v", ErrUnavailable, snap.Err):
			default:
			}
			continue
		}
		list := reconcile(snap.Docs)
		// Недоставленная версия вытесняется: потребителю нужна последняя.
		for {
			select {
			case f.updates <- list:
			default:
				select {
				case <-f.updates:
				default:
				}
				continue
			}
			break
		}
	}
}

// reconcile собирает список из снимка: по каждому идентификатору остается
// последняя версия, поврежденные документы пропускаются, сортировка по
// времени создания по убыванию.
func reconcile(docs []store.Document) []model.Booking {
	unique := make(map[string]model.Booking, len(docs))
	for _, doc := range docs {
		b, err := model.BookingFromDocument(doc)
		if err != nil {
			log.Printf("Пропущено поврежденное бронирование: %v", err)
			continue
		}
		unique[b.ID] = b
	}

	list := make([]model.Booking, 0, len(unique))
	for _, b := range unique {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
