package model

import (
	"time"

	"hotelapp/internal/store"
)

// ServiceRequest — заявка гостя на услугу во время проживания. Создается один
// раз со статусом "pending" и дальше ядром не меняется.
type ServiceRequest struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Notes     string    `json:"notes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
}

// Data возвращает поля документа для записи в коллекцию "serviceRequests".
func (r ServiceRequest) Data() map[string]interface{} {
	return map[string]interface{}{
		"type":      r.Type,
		"notes":     r.Notes,
		"status":    r.Status,
		"createdAt": store.ServerTimestamp,
		"bookingId": r.BookingID,
		"userId":    r.UserID,
	}
}
