package model

import (
	"fmt"
	"time"

	"hotelapp/internal/store"
)

// Статусы бронирования. Для сервисных заявок используется StatusPending,
// само бронирование в него не переходит.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

// Booking — бронирование номера. Имена полей документа совпадают с теми,
// что пишет мобильное приложение в коллекцию "bookings".
type Booking struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	RoomID          string    `json:"room_id"`
	RoomName        string    `json:"room_name"`
	RoomNumber      string    `json:"room_number"`
	RoomImageURL    string    `json:"room_image_url"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	NumberOfGuests  int       `json:"number_of_guests"`
	Status          string    `json:"status"`
	TotalPrice      float64   `json:"total_price"`
	CreatedAt       time.Time `json:"created_at"`
	SpecialRequests string    `json:"special_requests"`
}

// Data возвращает поля документа для записи. Отметка создания заполняется
// хранилищем.
func (b Booking) Data() map[string]interface{} {
	return map[string]interface{}{
		"userId":          b.UserID,
		"roomId":          b.RoomID,
		"roomName":        b.RoomName,
		"roomNumber":      b.RoomNumber,
		"roomImageUrl":    b.RoomImageURL,
		"startDate":       b.StartDate,
		"endDate":         b.EndDate,
		"numberOfGuests":  b.NumberOfGuests,
		"status":          b.Status,
		"totalPrice":      b.TotalPrice,
		"createdAt":       store.ServerTimestamp,
		"specialRequests": b.SpecialRequests,
	}
}

// DecodeError — документ не соответствует ожидаемой форме.
type DecodeError struct {
	ID    string
	Field string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("документ %s: некорректное поле %q", e.ID, e.Field)
}

// BookingFromDocument разбирает документ бронирования. Все поля обязательны,
// кроме specialRequests: запись без них считается поврежденной.
func BookingFromDocument(doc store.Document) (Booking, error) {
	b := Booking{ID: doc.ID}

	for _, f := range []struct {
		key  string
		dst  *string
		need bool
	}{
		{"userId", &b.UserID, true},
		{"roomId", &b.RoomID, true},
		{"roomName", &b.RoomName, true},
		{"roomNumber", &b.RoomNumber, true},
		{"roomImageUrl", &b.RoomImageURL, false},
		{"status", &b.Status, true},
		{"specialRequests", &b.SpecialRequests, false},
	} {
		s, ok := stringField(doc.Data, f.key)
		if !ok && f.need {
			return Booking{}, &DecodeError{ID: doc.ID, Field: f.key}
		}
		*f.dst = s
	}

	var ok bool
	if b.StartDate, ok = timeField(doc.Data, "startDate"); !ok {
		return Booking{}, &DecodeError{ID: doc.ID, Field: "startDate"}
	}
	if b.EndDate, ok = timeField(doc.Data, "endDate"); !ok {
		return Booking{}, &DecodeError{ID: doc.ID, Field: "endDate"}
	}
	if b.CreatedAt, ok = timeField(doc.Data, "createdAt"); !ok {
		return Booking{}, &DecodeError{ID: doc.ID, Field: "createdAt"}
	}
	if b.NumberOfGuests, ok = intField(doc.Data, "numberOfGuests"); !ok {
		return Booking{}, &DecodeError{ID: doc.ID, Field: "numberOfGuests"}
	}
	if b.TotalPrice, ok = floatField(doc.Data, "totalPrice"); !ok {
		return Booking{}, &DecodeError{ID: doc.ID, Field: "totalPrice"}
	}
	return b, nil
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	s, ok := data[key].(string)
	return s, ok
}

func timeField(data map[string]interface{}, key string) (time.Time, bool) {
	t, ok := data[key].(time.Time)
	return t, ok
}

// Firestore возвращает целые как int64, из JSON приходит float64.
func intField(data map[string]interface{}, key string) (int, bool) {
	switch n := data[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func floatField(data map[string]interface{}, key string) (float64, bool) {
	switch n := data[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
